// internal/stages/matching/match-llm/provider_test.go
package matchllm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mentor-matcher/internal/common/errors"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "[{\"mentor\":\"m@contoso.com\",\"mentee\":\"e@contoso.com\"}]"}
  }],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

type capturedRequest struct {
	path   string
	query  string
	header http.Header
	body   map[string]interface{}
}

func completionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.path = r.URL.Path
			captured.query = r.URL.Query().Get("api-version")
			captured.header = r.Header.Clone()
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &captured.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestOpenAIProvider_Complete(t *testing.T) {
	captured := &capturedRequest{}
	srv := completionServer(t, http.StatusOK, completionBody, captured)
	defer srv.Close()

	p := NewOpenAIProvider(&Config{Provider: "openai", Endpoint: srv.URL, APIKey: "sk-test", Model: "gpt-4o"})
	text, err := p.Complete(context.Background(), "rubric", `[{"email":"m@contoso.com"}]`)
	require.NoError(t, err)

	assert.Contains(t, text, "m@contoso.com")
	assert.Equal(t, "Bearer sk-test", captured.header.Get("Authorization"))
	assert.Equal(t, "gpt-4o", captured.body["model"])

	messages, ok := captured.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "rubric", messages[0].(map[string]interface{})["content"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

func TestOpenAIProvider_AzureDeployment(t *testing.T) {
	captured := &capturedRequest{}
	srv := completionServer(t, http.StatusOK, completionBody, captured)
	defer srv.Close()

	p := NewOpenAIProvider(&Config{Provider: "azure", Endpoint: srv.URL, APIKey: "azure-key", APIVersion: "2023-05-15", Model: "chat"})
	_, err := p.Complete(context.Background(), "rubric", "[]")
	require.NoError(t, err)

	assert.Contains(t, captured.path, "/deployments/chat/")
	assert.Equal(t, "2023-05-15", captured.query)
	assert.Equal(t, "azure-key", captured.header.Get("Api-Key"))
	assert.Equal(t, "azure", p.Name())
}

func TestOpenAIProvider_Unauthorized(t *testing.T) {
	srv := completionServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid key","type":"invalid_request_error"}}`, nil)
	defer srv.Close()

	_, err := NewOpenAIProvider(&Config{Provider: "openai", Endpoint: srv.URL, APIKey: "bad", Model: "gpt-4o"}).
		Complete(context.Background(), "s", "u")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuth))
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`, nil)
	defer srv.Close()

	_, err := NewOpenAIProvider(&Config{Provider: "openai", Endpoint: srv.URL, APIKey: "k", Model: "gpt-4o", MaxRetries: 0}).
		Complete(context.Background(), "s", "u")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMatchService))
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`, nil)
	defer srv.Close()

	_, err := NewOpenAIProvider(&Config{Provider: "openai", Endpoint: srv.URL, APIKey: "k", Model: "gpt-4o"}).
		Complete(context.Background(), "s", "u")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMatchService))
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOpenAIProvider(&Config{Provider: "openai", Endpoint: srv.URL, APIKey: "k", Model: "gpt-4o"}).Complete(ctx, "s", "u")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMatchService))
}

func TestGeminiProvider_Complete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[]"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), &Config{Provider: "gemini", Endpoint: srv.URL, APIKey: "g-key", Model: "gemini-2.5-pro"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "rubric", "[]")
	require.NoError(t, err)
	assert.Equal(t, "[]", text)
	assert.Contains(t, path, "gemini-2.5-pro")
}

func TestNewProvider_GeminiWithoutKey(t *testing.T) {
	_, err := NewProvider(context.Background(), &Config{Provider: "gemini", Model: "gemini-2.5-pro"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuth))
	assert.Equal(t, 4, apperrors.ExitCode(err))
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(context.Background(), &Config{Provider: "bard"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))
}
