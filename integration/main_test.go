//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A running API is required, e.g. go run ./cmd/api

func apiBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080" // Default to localhost
}

func TestMain(m *testing.M) {
	fmt.Printf("Running Cutscene Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

const cutsceneBody = `{
  "version": 2,
  "entry_node_id": "entry",
  "links": [
    {"source_node_id": "entry", "source_port_label": "Next", "source_port_index": 0, "dest_node_id": "hello"},
    {"source_node_id": "hello", "source_port_label": "Yes", "source_port_index": 0, "dest_node_id": "wait"}
  ],
  "nodes": [
    {"type": "Dialogue", "node_name": "Hello", "guid": "hello", "dialogue_text": "Hello [Player]", "choices": ["Yes"]},
    {"type": "Delay", "node_name": "Wait", "guid": "wait", "delay_seconds": 0.5}
  ],
  "exposed_properties": [{"name": "Player", "value": "Alex"}]
}`

func do(t *testing.T, client *http.Client, method, url string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestCutsceneLifecycle(t *testing.T) {
	client := &http.Client{Timeout: 30 * time.Second}
	base := apiBaseURL()
	name := "it_" + uuid.NewString()[:8]
	url := base + "/v1/cutscenes/" + name

	status, _ := do(t, client, http.MethodGet, base+"/health", nil)
	require.Equal(t, http.StatusOK, status, "API is not healthy")

	status, body := do(t, client, http.MethodPut, url, []byte(cutsceneBody))
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, client, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, status)
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, name, got["name"])
	assert.Equal(t, "entry", got["entry_node_id"])

	status, body = do(t, client, http.MethodGet, base+"/v1/cutscenes", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), name)

	status, _ = do(t, client, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, client, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
