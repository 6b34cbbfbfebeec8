/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeoracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chainguard.dev/curator/retry"
	"chainguard.dev/curator/reviewprompt"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"
)

func fakeMessages(t *testing.T, status int, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       DefaultModel,
			"content":     []map[string]any{{"type": "text", "text": reply}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 120, "output_tokens": 30},
		})
	}))
}

func newTestClient(url string) anthropic.Client {
	return anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(url),
		option.WithMaxRetries(0),
	)
}

func testRequest() *reviewprompt.Request {
	return &reviewprompt.Request{Blocks: []reviewprompt.Block{
		{Kind: reviewprompt.TextBlock, Text: "Review this PR"},
		{Kind: reviewprompt.TextBlock, Text: "Image file: logo.png"},
		{Kind: reviewprompt.ImageBlock, ImageURL: "https://example.com/logo.png"},
	}}
}

func TestDecide_Approve(t *testing.T) {
	var got map[string]any
	srv := fakeMessages(t, http.StatusOK, `"decision": true, "explanation": "Looks good", "commitTitle": "Add logo"}`, &got)
	defer srv.Close()

	o, err := New(newTestClient(srv.URL), "be strict")
	require.NoError(t, err)

	v, err := o.Decide(t.Context(), testRequest())
	require.NoError(t, err)
	require.True(t, v.Decision)
	require.False(t, v.Synthetic)
	require.Equal(t, "Looks good", v.Explanation)
	require.Equal(t, "Add logo", v.CommitTitle)

	system, ok := got["system"].([]any)
	require.True(t, ok, "system: %v", got["system"])
	require.Equal(t, "be strict", system[0].(map[string]any)["text"])

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[0].(map[string]any)
	require.Equal(t, "user", user["role"])
	content := user["content"].([]any)
	require.Len(t, content, 3)
	image := content[2].(map[string]any)
	require.Equal(t, "image", image["type"])
	require.Equal(t, "https://example.com/logo.png", image["source"].(map[string]any)["url"])

	assistant := messages[1].(map[string]any)
	require.Equal(t, "assistant", assistant["role"])
	require.Equal(t, "{", assistant["content"].([]any)[0].(map[string]any)["text"])
}

func TestDecide_Unparsable(t *testing.T) {
	srv := fakeMessages(t, http.StatusOK, "I refuse to answer in JSON", nil)
	defer srv.Close()

	o, err := New(newTestClient(srv.URL), "be strict")
	require.NoError(t, err)

	v, err := o.Decide(t.Context(), testRequest())
	require.NoError(t, err)
	require.False(t, v.Decision)
	require.True(t, v.Synthetic)
	require.Contains(t, v.Explanation, "I refuse to answer in JSON")
}

func TestDecide_TransportError(t *testing.T) {
	srv := fakeMessages(t, http.StatusServiceUnavailable, "", nil)
	defer srv.Close()

	noSleep := func(context.Context, time.Duration) error { return nil }
	cfg := retry.Config{MaxRetries: 1, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Sleep: noSleep}
	o, err := New(newTestClient(srv.URL), "be strict", WithRetryConfig(cfg))
	require.NoError(t, err)

	_, err = o.Decide(t.Context(), testRequest())
	require.Error(t, err)
	var apiErr *anthropic.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{{
		name: "claude model",
		opt:  WithModel("claude-sonnet-4-20250514"),
	}, {
		name:    "foreign model",
		opt:     WithModel("gemini-2.5-pro"),
		wantErr: true,
	}, {
		name: "empty model keeps default",
		opt:  WithModel(""),
	}, {
		name:    "zero tokens",
		opt:     WithMaxTokens(0),
		wantErr: true,
	}, {
		name:    "temperature out of range",
		opt:     WithTemperature(1.5),
		wantErr: true,
	}, {
		name:    "invalid retry config",
		opt:     WithRetryConfig(retry.Config{MaxRetries: -1}),
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(anthropic.NewClient(option.WithAPIKey("k")), "prompt", tt.opt)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_EmptyPrompt(t *testing.T) {
	if _, err := New(anthropic.NewClient(), ""); err == nil {
		t.Error("New() with empty prompt: got nil error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{429, true},
		{503, true},
		{504, true},
		{529, true},
		{400, false},
		{500, false},
	}
	for _, tt := range tests {
		err := &anthropic.Error{StatusCode: tt.status}
		if got := isRetryableClaudeError(err); got != tt.want {
			t.Errorf("isRetryableClaudeError(%d): got %v, want %v", tt.status, got, tt.want)
		}
	}
	if isRetryableClaudeError(errors.New("boom")) {
		t.Error("plain error should not be retryable")
	}
}
