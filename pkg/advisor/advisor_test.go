package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.APIKey = "test-key"
	return cfg
}

func TestAnalyze(t *testing.T) {
	var gotAuth string
	var gotBody completionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]string{{"text": "looks like a port scan"}},
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	text, err := c.Analyze(context.Background(), "100 rows, 3 columns")
	require.NoError(t, err)

	assert.Equal(t, "looks like a port scan", text)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "qwen-2.5-32b", gotBody.Model)
	assert.Equal(t, promptPrefix+"100 rows, 3 columns", gotBody.Prompt)
	assert.Equal(t, 0.6, gotBody.Temperature)
	assert.Equal(t, 100, gotBody.MaxTokens)
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices field", `{}`},
		{"empty choices", `{"choices": []}`},
		{"empty text", `{"choices": [{"text": ""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(testConfig(srv.URL), nil)
			text, err := c.Analyze(context.Background(), "summary")
			require.NoError(t, err)
			assert.Equal(t, FallbackText, text)
		})
	}
}

func TestAnalyzeFailures(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL), nil).Analyze(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL), nil).Analyze(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		_, err := NewClient(testConfig("http://127.0.0.1:1"), nil).Analyze(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("missing credential", func(t *testing.T) {
		cfg := DefaultConfig()
		c := NewClient(cfg, nil)
		assert.False(t, c.Enabled())
		_, err := c.Analyze(context.Background(), "x")
		assert.Error(t, err)
	})
}
