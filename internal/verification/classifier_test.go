package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/civicpulse/pulse-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func chatServer(t *testing.T, status int, content string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVisionClassifierSendsImageAndClaim(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw := map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&raw)
		got.Model, _ = raw["model"].(string)
		msgs, _ := raw["messages"].([]interface{})
		for _, m := range msgs {
			got.Messages = append(got.Messages, chatMessage{Content: m.(map[string]interface{})["content"]})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": `{"match":true,"confidence":91,"reason":"pothole"}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewVisionClassifier([]Endpoint{{Name: "test", URL: srv.URL, APIKey: "k1", Model: "vision-1"}}, time.Second, 0)
	v := c.Classify(context.Background(), pngHeader, "Pothole on Main St")

	assert.False(t, v.Failed())
	assert.Equal(t, Verdict{IsMatch: true, Confidence: 91, Reason: "pothole"}, v)
	assert.Equal(t, "Bearer k1", auth)
	assert.Equal(t, "vision-1", got.Model)
	require.Len(t, got.Messages, 2)

	parts, ok := got.Messages[1].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(map[string]interface{})["text"], "Pothole on Main St")
	imageURL := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})["url"].(string)
	assert.Contains(t, imageURL, "data:image/png;base64,")
}

func TestVisionClassifierFallsBackToNextEndpoint(t *testing.T) {
	var firstHits, secondHits int32
	broken := chatServer(t, http.StatusInternalServerError, "", &firstHits)
	healthy := chatServer(t, http.StatusOK, "```json\n{\"match\": true, \"confidence\": 80, \"reason\": \"ok\"}\n```", &secondHits)

	c := NewVisionClassifier([]Endpoint{
		{Name: "primary", URL: broken.URL, Model: "a"},
		{Name: "secondary", URL: healthy.URL, Model: "b"},
	}, time.Second, 0)

	v := c.Classify(context.Background(), pngHeader, "claim")
	assert.False(t, v.Failed())
	assert.Equal(t, 80, v.Confidence)
	assert.EqualValues(t, 1, atomic.LoadInt32(&firstHits))
	assert.EqualValues(t, 1, atomic.LoadInt32(&secondHits))
}

func TestVisionClassifierMalformedReplyFallsThrough(t *testing.T) {
	chatty := chatServer(t, http.StatusOK, "I think it is probably a pothole.", nil)

	c := NewVisionClassifier([]Endpoint{{Name: "chatty", URL: chatty.URL, Model: "m"}}, time.Second, 0)
	v := c.Classify(context.Background(), pngHeader, "claim")

	require.True(t, v.Failed())
	assert.ErrorIs(t, v.Err, ErrMalformedReply)
	assert.False(t, v.IsMatch)
	assert.Zero(t, v.Confidence)
	assert.Contains(t, v.Reason, "AI Error: ")
}

func TestVisionClassifierTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c := NewVisionClassifier([]Endpoint{{Name: "slow", URL: slow.URL, Model: "m"}}, 50*time.Millisecond, 0)

	start := time.Now()
	v := c.Classify(context.Background(), pngHeader, "claim")
	assert.True(t, v.Failed())
	assert.Less(t, time.Since(start), time.Second)
}

func TestVisionClassifierWithoutInputs(t *testing.T) {
	c := NewVisionClassifier(nil, time.Second, 0)
	v := c.Classify(context.Background(), pngHeader, "claim")
	assert.ErrorIs(t, v.Err, ErrNoEndpoints)

	c = NewVisionClassifier([]Endpoint{{URL: "http://127.0.0.1:1", Model: "m"}}, time.Second, 0)
	v = c.Classify(context.Background(), nil, "claim")
	assert.ErrorIs(t, v.Err, ErrNoImage)
}

func TestEndpointsFromConfig(t *testing.T) {
	cfg := &config.Config{
		GeminiAPIKey: "g", GeminiAPIURL: "https://gemini", GeminiModels: "m1, m2",
		OpenAIAPIKey: "o", OpenAIAPIURL: "https://openai", OpenAIModel: "gpt",
	}
	eps := EndpointsFromConfig(cfg)
	require.Len(t, eps, 3)
	assert.Equal(t, "m1", eps[0].Model)
	assert.Equal(t, "m2", eps[1].Model)
	assert.Equal(t, "openai/gpt", eps[2].Name)

	assert.Empty(t, EndpointsFromConfig(&config.Config{}))
}

func TestLoadEndpointsFile(t *testing.T) {
	t.Setenv("VISION_TEST_KEY", "secret")
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoints:
  - name: local
    url: http://localhost:11434/v1/chat/completions
    model: llava
  - url: https://api.example.com/v1/chat/completions
    api_key: ${VISION_TEST_KEY}
    model: vision-large
`), 0o600))

	eps, err := LoadEndpointsFile(path)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, "local", eps[0].Name)
	assert.Equal(t, "secret", eps[1].APIKey)
	assert.Equal(t, "vision-large", eps[1].Name)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("endpoints:\n  - name: nourl\n    model: x\n"), 0o600))
	_, err = LoadEndpointsFile(bad)
	assert.Error(t, err)
}
