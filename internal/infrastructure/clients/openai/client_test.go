package openai

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{APIKey: "test-key", RateLimitRPM: -1}, time.Second)
	require.NoError(t, err)
	client.SetBaseURL(server.URL)
	return client
}

func TestClient_Draft(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model string              `json:"model"`
			Input []map[string]string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Input, 2)
		assert.Contains(t, body.Input[1]["content"], "diabetes")
		assert.Contains(t, body.Input[1]["content"], "Morning readings high")

		_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":"` + "```text\\nEat a light dinner.\\n```" + `"}]}]}`))
	})

	text, err := client.Draft(context.Background(), entities.DraftRequest{QueryText: "Morning readings high", Condition: "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, "Eat a light dinner.", text)
}

func TestClient_DraftUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Draft(context.Background(), entities.DraftRequest{QueryText: "question"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_DraftMissingOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	})

	_, err := client.Draft(context.Background(), entities.DraftRequest{QueryText: "question"})
	assert.Error(t, err)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{}, time.Second)
	assert.Error(t, err)
}

func TestCleanDraft(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain answer", "plain answer"},
		{"```\nfenced\n```", "fenced"},
		{"```markdown\n**bold**\n```", "**bold**"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanDraft(tt.in))
	}
}
