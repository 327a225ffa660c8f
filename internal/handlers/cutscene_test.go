package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

const validBody = `{
  "version": 2,
  "name": "ignored",
  "entry_node_id": "entry",
  "links": [{"source_node_id": "entry", "source_port_label": "Next", "source_port_index": 0, "dest_node_id": "d1"}],
  "nodes": [{"type": "Dialogue", "node_name": "Hi", "guid": "d1", "dialogue_text": "Hello"}],
  "exposed_properties": []
}`

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCutsceneHandler_PutGetDelete(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	h := NewCutsceneHandler(testLogger(), mockStorage)

	rr := serve(h, http.MethodPut, "/v1/cutscenes/intro", validBody, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(h, http.MethodPut, "/v1/cutscenes/intro", validBody, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h, http.MethodGet, "/v1/cutscenes/intro", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	c, err := container.Decode(rr.Body.Bytes(), container.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "intro", c.Name)
	assert.Equal(t, graph.KindDialogue, c.Nodes[0].Kind)

	rr = serve(h, http.MethodGet, "/v1/cutscenes/intro", "", map[string]string{"Accept": "application/yaml"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "entry_node_id: entry")

	rr = serve(h, http.MethodDelete, "/v1/cutscenes/intro", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(h, http.MethodGet, "/v1/cutscenes/intro", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = serve(h, http.MethodDelete, "/v1/cutscenes/intro", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCutsceneHandler_PutYAML(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	h := NewCutsceneHandler(testLogger(), mockStorage)

	body := "version: 2\nentry_node_id: e\nlinks:\n  - source_node_id: e\n    source_port_label: Next\n    source_port_index: 0\n    dest_node_id: w\nnodes:\n  - type: Delay\n    guid: w\n    delay_seconds: 2\n"
	rr := serve(h, http.MethodPut, "/v1/cutscenes/pause", body, map[string]string{"Content-Type": "application/yaml"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	c, err := mockStorage.LoadContainer(context.Background(), "pause")
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Nodes[0].DelaySeconds)
}

func TestCutsceneHandler_PutRejectsInvalid(t *testing.T) {
	h := NewCutsceneHandler(testLogger(), storage.NewMockStorage())

	rr := serve(h, http.MethodPut, "/v1/cutscenes/bad", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	dangling := strings.Replace(validBody, `"dest_node_id": "d1"`, `"dest_node_id": "ghost"`, 1)
	rr = serve(h, http.MethodPut, "/v1/cutscenes/bad", dangling, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var problem ProblemResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	require.NotEmpty(t, problem.Problems)
	assert.Contains(t, problem.Problems[0], "unknown destination")
}

func TestCutsceneHandler_List(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	ctx := context.Background()
	require.NoError(t, mockStorage.SaveContainer(ctx, "b", container.New("b")))
	require.NoError(t, mockStorage.SaveContainer(ctx, "a", container.New("a")))
	h := NewCutsceneHandler(testLogger(), mockStorage)

	for _, target := range []string{"/v1/cutscenes", "/v1/cutscenes/"} {
		rr := serve(h, http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var list ListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
		assert.Equal(t, []string{"a", "b"}, list.Cutscenes)
	}

	rr := serve(h, http.MethodPost, "/v1/cutscenes", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCutsceneHandler_BadNameAndMethod(t *testing.T) {
	h := NewCutsceneHandler(testLogger(), storage.NewMockStorage())

	rr := serve(h, http.MethodGet, "/v1/cutscenes/a/b", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, http.MethodGet, "/v1/cutscenes/x..y", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, http.MethodPatch, "/v1/cutscenes/intro", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
