package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simplemotion/m365-mcp/internal/graph"
)

type groupIDInput struct {
	GroupID string `json:"group_id" jsonschema:"Microsoft 365 group ID owning the plans"`
}

type planIDInput struct {
	PlanID string `json:"plan_id" jsonschema:"Planner plan ID"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"Planner task ID"`
}

type createTaskInput struct {
	PlanID      string   `json:"plan_id" jsonschema:"plan to add the task to"`
	Title       string   `json:"title" jsonschema:"task title"`
	BucketID    string   `json:"bucket_id,omitempty" jsonschema:"bucket to place the task in"`
	DueDateTime string   `json:"due_date_time,omitempty" jsonschema:"due date in RFC 3339"`
	AssignTo    []string `json:"assign_to,omitempty" jsonschema:"user IDs to assign"`
}

type updateTaskInput struct {
	TaskID      string `json:"task_id" jsonschema:"task to update"`
	Title       string `json:"title,omitempty" jsonschema:"new title"`
	BucketID    string `json:"bucket_id,omitempty" jsonschema:"new bucket"`
	DueDateTime string `json:"due_date_time,omitempty" jsonschema:"new due date in RFC 3339"`
	PercentDone *int   `json:"percent_done,omitempty" jsonschema:"completion percentage, 0-100"`
}

func (s *Server) registerPlannerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_teams",
		Description: "List the teams the acting user has joined.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_teams", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListTeams(ctx, profile)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_plans",
		Description: "List the Planner plans owned by a group.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in groupIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_plans", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListPlans(ctx, profile, in.GroupID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_plan",
		Description: "Get a single Planner plan.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in planIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_plan", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetPlan(ctx, profile, in.PlanID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_tasks",
		Description: "List a plan's tasks.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in planIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_tasks", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListTasks(ctx, profile, in.PlanID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_task",
		Description: "Get a single Planner task.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in taskIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_task", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetTask(ctx, profile, in.TaskID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_create_task",
		Description: "Create a Planner task in a plan.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in createTaskInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_create_task", func(ctx context.Context, profile string) (any, error) {
			return s.graph.CreateTask(ctx, profile, &graph.Task{
				PlanID:      in.PlanID,
				Title:       in.Title,
				BucketID:    in.BucketID,
				DueDateTime: in.DueDateTime,
				AssignTo:    in.AssignTo,
			})
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_update_task",
		Description: "Update a Planner task. The current version is fetched first so the write carries a matching ETag.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in updateTaskInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_update_task", func(ctx context.Context, profile string) (any, error) {
			return s.graph.UpdateTask(ctx, profile, in.TaskID, &graph.Task{
				Title:       in.Title,
				BucketID:    in.BucketID,
				DueDateTime: in.DueDateTime,
				PercentDone: in.PercentDone,
			})
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_delete_task",
		Description: "Delete a Planner task.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in taskIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_delete_task", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.DeleteTask(ctx, profile, in.TaskID); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		})
	})
}
