package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListTeams returns the teams the acting user has joined.
func (c *Client) ListTeams(ctx context.Context, profile string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "{user}/joinedTeams", nil)
}

// ListPlans returns the Planner plans owned by a group.
func (c *Client) ListPlans(ctx context.Context, profile, groupID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "/groups/"+url.PathEscape(groupID)+"/planner/plans", nil)
}

// GetPlan fetches one plan.
func (c *Client) GetPlan(ctx context.Context, profile, planID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "/planner/plans/"+url.PathEscape(planID), nil)
}

// ListTasks returns a plan's tasks.
func (c *Client) ListTasks(ctx context.Context, profile, planID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "/planner/plans/"+url.PathEscape(planID)+"/tasks", nil)
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, profile, taskID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "/planner/tasks/"+url.PathEscape(taskID), nil)
}

// Task is the writable subset of a Planner task.
type Task struct {
	PlanID      string
	BucketID    string
	Title       string
	DueDateTime string
	PercentDone *int
	AssignTo    []string
}

func (t *Task) payload(create bool) map[string]any {
	payload := map[string]any{}
	if create {
		payload["planId"] = t.PlanID
	}
	if t.Title != "" {
		payload["title"] = t.Title
	}
	if t.BucketID != "" {
		payload["bucketId"] = t.BucketID
	}
	if t.DueDateTime != "" {
		payload["dueDateTime"] = t.DueDateTime
	}
	if t.PercentDone != nil {
		payload["percentComplete"] = *t.PercentDone
	}
	if len(t.AssignTo) > 0 {
		assignments := map[string]any{}
		for _, userID := range t.AssignTo {
			assignments[userID] = map[string]any{
				"@odata.type": "#microsoft.graph.plannerAssignment",
				"orderHint":   " !",
			}
		}
		payload["assignments"] = assignments
	}
	return payload
}

// CreateTask adds a task to a plan.
func (c *Client) CreateTask(ctx context.Context, profile string, task *Task) (json.RawMessage, error) {
	if task.PlanID == "" {
		return nil, fmt.Errorf("graph: create task requires a plan id")
	}
	return c.Post(ctx, profile, "/planner/tasks", task.payload(true))
}

// taskETag fetches the task's current @odata.etag. Planner rejects writes
// without a matching If-Match.
func (c *Client) taskETag(ctx context.Context, profile, taskID string) (string, error) {
	raw, err := c.GetTask(ctx, profile, taskID)
	if err != nil {
		return "", err
	}
	var task struct {
		ETag string `json:"@odata.etag"`
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		return "", fmt.Errorf("decode task: %w", err)
	}
	if task.ETag == "" {
		return "", fmt.Errorf("graph: task %s has no etag", taskID)
	}
	return task.ETag, nil
}

// UpdateTask patches a task, fetching its current ETag first.
func (c *Client) UpdateTask(ctx context.Context, profile, taskID string, task *Task) (json.RawMessage, error) {
	etag, err := c.taskETag(ctx, profile, taskID)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, profile, Request{
		Method:  http.MethodPatch,
		Path:    "/planner/tasks/" + url.PathEscape(taskID),
		Body:    task.payload(false),
		IfMatch: etag,
	})
}

// DeleteTask removes a task, fetching its current ETag first.
func (c *Client) DeleteTask(ctx context.Context, profile, taskID string) error {
	etag, err := c.taskETag(ctx, profile, taskID)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, profile, Request{
		Method:  http.MethodDelete,
		Path:    "/planner/tasks/" + url.PathEscape(taskID),
		IfMatch: etag,
	})
	return err
}
