package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannerHandler(etag string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			body, _ := json.Marshal(map[string]any{
				"@odata.etag": etag,
				"id":          "task-1",
				"title":       "old title",
			})
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func TestUpdateTask_FetchesETagFirst(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = plannerHandler(`W/"etag-7"`)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.UpdateTask(context.Background(), "SM", "task-1", &Task{Title: "new title"})
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/planner/tasks/task-1", reqs[0].Path)
	assert.Equal(t, http.MethodPatch, reqs[1].Method)
	assert.Equal(t, `W/"etag-7"`, reqs[1].Headers.Get("If-Match"))
	assert.JSONEq(t, `{"title":"new title"}`, reqs[1].Body)
}

func TestDeleteTask_SendsIfMatch(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = plannerHandler(`W/"etag-3"`)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	require.NoError(t, client.DeleteTask(context.Background(), "SM", "task-1"))

	reqs := gs.captured()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)
	assert.Equal(t, `W/"etag-3"`, reqs[1].Headers.Get("If-Match"))
}

func TestUpdateTask_MissingETag(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"task-1"}`))
	}
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.UpdateTask(context.Background(), "SM", "task-1", &Task{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etag")
	assert.Len(t, gs.captured(), 1)
}

func TestCreateTask_RequiresPlanID(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.CreateTask(context.Background(), "SM", &Task{Title: "x"})
	require.Error(t, err)
	assert.Empty(t, gs.captured())
}

func TestCreateTask_Payload(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	done := 50
	_, err := client.CreateTask(context.Background(), "SM", &Task{
		PlanID:      "plan-1",
		BucketID:    "bucket-1",
		Title:       "write report",
		PercentDone: &done,
		AssignTo:    []string{"user-1"},
	})
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/planner/tasks", reqs[0].Path)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &payload))
	assert.Equal(t, "plan-1", payload["planId"])
	assert.Equal(t, "bucket-1", payload["bucketId"])
	assert.Equal(t, float64(50), payload["percentComplete"])
	assignments := payload["assignments"].(map[string]any)
	assert.Contains(t, assignments, "user-1")
}

func TestListPlans(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.ListPlans(context.Background(), "SM", "group-1")
	require.NoError(t, err)
	assert.Equal(t, "/groups/group-1/planner/plans", gs.captured()[0].Path)
}

func TestListTeams_ActsAsUser(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.ListTeams(context.Background(), "SM")
	require.NoError(t, err)
	assert.Equal(t, "/users/ops@contoso.com/joinedTeams", gs.captured()[0].Path)
}
