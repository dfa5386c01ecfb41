package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simplemotion/m365-mcp/internal/graph"
)

type searchContactsInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum contacts to return"`
}

type contactIDInput struct {
	ContactID string `json:"contact_id" jsonschema:"contact ID"`
}

type contactInput struct {
	DisplayName string   `json:"display_name,omitempty" jsonschema:"full display name"`
	GivenName   string   `json:"given_name,omitempty" jsonschema:"first name"`
	Surname     string   `json:"surname,omitempty" jsonschema:"last name"`
	Emails      []string `json:"emails,omitempty" jsonschema:"email addresses"`
	Phones      []string `json:"phones,omitempty" jsonschema:"business phone numbers"`
	Company     string   `json:"company,omitempty" jsonschema:"company name"`
	JobTitle    string   `json:"job_title,omitempty" jsonschema:"job title"`
}

type updateContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"contact ID"`
	contactInput
}

func (c *contactInput) contact() *graph.Contact {
	return &graph.Contact{
		DisplayName: c.DisplayName,
		GivenName:   c.GivenName,
		Surname:     c.Surname,
		Emails:      c.Emails,
		Phones:      c.Phones,
		Company:     c.Company,
		JobTitle:    c.JobTitle,
	}
}

func (s *Server) registerContactTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_contacts",
		Description: "List contacts ordered by display name.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_contacts", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListContacts(ctx, profile, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_search_contacts",
		Description: "Search contacts by name, email, or company.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in searchContactsInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_search_contacts", func(ctx context.Context, profile string) (any, error) {
			return s.graph.SearchContacts(ctx, profile, in.Query, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_contact",
		Description: "Get a single contact.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in contactIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_contact", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetContact(ctx, profile, in.ContactID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_create_contact",
		Description: "Create a contact in the default contacts folder.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in contactInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_create_contact", func(ctx context.Context, profile string) (any, error) {
			return s.graph.CreateContact(ctx, profile, in.contact())
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_update_contact",
		Description: "Update the given fields of an existing contact.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in updateContactInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_update_contact", func(ctx context.Context, profile string) (any, error) {
			return s.graph.UpdateContact(ctx, profile, in.ContactID, in.contact())
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_delete_contact",
		Description: "Delete a contact.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in contactIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_delete_contact", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.DeleteContact(ctx, profile, in.ContactID); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		})
	})
}
