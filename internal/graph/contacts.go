package graph

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

const contactSelect = "id,displayName,givenName,surname,emailAddresses,businessPhones,mobilePhone,companyName,jobTitle"

// ListContacts returns the profile's contacts ordered by display name.
func (c *Client) ListContacts(ctx context.Context, profile string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$select", contactSelect)
	query.Set("$orderby", "displayName")
	return c.Get(ctx, profile, "{user}/contacts", query)
}

// SearchContacts runs a $search query across contacts.
func (c *Client) SearchContacts(ctx context.Context, profile, search string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$select", contactSelect)
	query.Set("$search", strconv.Quote(search))
	return c.Get(ctx, profile, "{user}/contacts", query)
}

// GetContact fetches one contact.
func (c *Client) GetContact(ctx context.Context, profile, contactID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "{user}/contacts/"+url.PathEscape(contactID), nil)
}

// Contact is the writable subset of a Graph contact.
type Contact struct {
	DisplayName string
	GivenName   string
	Surname     string
	Emails      []string
	Phones      []string
	Company     string
	JobTitle    string
}

func (ct *Contact) payload() map[string]any {
	payload := map[string]any{}
	if ct.DisplayName != "" {
		payload["displayName"] = ct.DisplayName
	}
	if ct.GivenName != "" {
		payload["givenName"] = ct.GivenName
	}
	if ct.Surname != "" {
		payload["surname"] = ct.Surname
	}
	if len(ct.Emails) > 0 {
		emails := make([]map[string]any, 0, len(ct.Emails))
		for _, address := range ct.Emails {
			emails = append(emails, map[string]any{"address": address})
		}
		payload["emailAddresses"] = emails
	}
	if len(ct.Phones) > 0 {
		payload["businessPhones"] = ct.Phones
	}
	if ct.Company != "" {
		payload["companyName"] = ct.Company
	}
	if ct.JobTitle != "" {
		payload["jobTitle"] = ct.JobTitle
	}
	return payload
}

// CreateContact adds a contact to the default contacts folder.
func (c *Client) CreateContact(ctx context.Context, profile string, contact *Contact) (json.RawMessage, error) {
	return c.Post(ctx, profile, "{user}/contacts", contact.payload())
}

// UpdateContact patches the non-empty fields of an existing contact.
func (c *Client) UpdateContact(ctx context.Context, profile, contactID string, contact *Contact) (json.RawMessage, error) {
	return c.Patch(ctx, profile, "{user}/contacts/"+url.PathEscape(contactID), contact.payload())
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, profile, contactID string) error {
	_, err := c.Delete(ctx, profile, "{user}/contacts/"+url.PathEscape(contactID))
	return err
}
