package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.DraftConfig{Endpoint: server.URL, Timeout: timeout})
	require.NoError(t, err)
	return client
}

func TestClient_Draft(t *testing.T) {
	var got entities.DraftRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "response": "Check your glucose before breakfast."}`))
	}, time.Second)

	text, err := client.Draft(context.Background(), entities.DraftRequest{QueryText: "Morning readings high", Condition: "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, "Check your glucose before breakfast.", text)
	assert.Equal(t, "Morning readings high", got.QueryText)
	assert.Equal(t, "diabetes", got.Condition)
}

func TestClient_DraftFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success": true, "response": `))
			},
		},
		{
			name: "unsuccessful",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success": false, "response": "model unavailable"}`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, 50*time.Millisecond)
			text, err := client.Draft(context.Background(), entities.DraftRequest{QueryText: "q", Condition: "c"})
			assert.Error(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(&config.DraftConfig{})
	assert.Error(t, err)
}

func TestExtractDraft(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "top level", raw: `{"success": true, "response": "draft"}`, want: "draft"},
		{name: "nested object", raw: `{"data": {"result": {"success": true, "response": "nested draft"}}}`, want: "nested draft"},
		{name: "inside array", raw: `{"choices": [{"meta": 1}, {"success": true, "response": "from array"}]}`, want: "from array"},
		{name: "trims whitespace", raw: `{"success": true, "response": "  padded \n"}`, want: "padded"},
		{name: "missing success", raw: `{"response": "draft"}`, wantErr: true},
		{name: "response not a string", raw: `{"success": true, "response": {"text": "x"}}`, wantErr: true},
		{name: "empty response", raw: `{"success": true, "response": ""}`, wantErr: true},
		{name: "not an object", raw: `"just a string"`, wantErr: true},
		{name: "malformed", raw: `{success: true}`, wantErr: true},
		{name: "too deep", raw: `{"a":{"b":{"c":{"d":{"e":{"f":{"g":{"h":{"i":{"success": true, "response": "deep"}}}}}}}}}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractDraft([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoDraft))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
