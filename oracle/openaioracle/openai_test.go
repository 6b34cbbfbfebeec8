/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaioracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chainguard.dev/curator/retry"
	"chainguard.dev/curator/reviewprompt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"
)

type fakeCompletions struct {
	calls  int
	errs   []error
	reply  string
	params openai.ChatCompletionNewParams
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.calls++
	f.params = body
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
		Usage:   openai.CompletionUsage{PromptTokens: 50, CompletionTokens: 10},
	}, nil
}

func TestDecide(t *testing.T) {
	fake := &fakeCompletions{reply: `{"decision": true, "explanation": "Fine", "commit_title": "Add docs"}`}
	o, err := NewWithCompletions(fake, "system", WithModel("gpt-4.1"))
	require.NoError(t, err)

	req := &reviewprompt.Request{Blocks: []reviewprompt.Block{
		{Kind: reviewprompt.TextBlock, Text: "Review"},
		{Kind: reviewprompt.ImageBlock, ImageURL: "https://example.com/a.png"},
		{Kind: reviewprompt.ImageBlock, ImageURL: "https://example.com/b.png", MediaType: "image/png", Data: []byte("png")},
	}}
	v, err := o.Decide(t.Context(), req)
	require.NoError(t, err)
	require.True(t, v.Decision)
	require.Equal(t, "Add docs", v.CommitTitle)

	b, err := json.Marshal(fake.params)
	require.NoError(t, err)
	var wire struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(b, &wire))
	require.Equal(t, "gpt-4.1", wire.Model)
	require.Equal(t, "json_object", wire.ResponseFormat.Type)
	require.Len(t, wire.Messages, 2)
	require.Equal(t, "system", wire.Messages[0].Role)
	require.Equal(t, "user", wire.Messages[1].Role)

	var parts []struct {
		Type     string `json:"type"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(wire.Messages[1].Content, &parts))
	require.Len(t, parts, 3)
	require.Equal(t, "https://example.com/a.png", parts[1].ImageURL.URL)
	require.Equal(t, "data:image/png;base64,cG5n", parts[2].ImageURL.URL)
}

func TestDecide_Unparsable(t *testing.T) {
	fake := &fakeCompletions{reply: "sorry"}
	o, err := NewWithCompletions(fake, "system")
	require.NoError(t, err)

	v, err := o.Decide(t.Context(), &reviewprompt.Request{})
	require.NoError(t, err)
	require.True(t, v.Synthetic)
	require.Contains(t, v.Explanation, "sorry")
}

func TestDecide_Retries(t *testing.T) {
	fake := &fakeCompletions{
		errs:  []error{&openai.Error{StatusCode: 429}},
		reply: `{"decision": false, "explanation": "no"}`,
	}
	cfg := retry.Config{MaxRetries: 2, Sleep: func(context.Context, time.Duration) error { return nil }}
	o, err := NewWithCompletions(fake, "system", WithRetryConfig(cfg))
	require.NoError(t, err)

	v, err := o.Decide(t.Context(), &reviewprompt.Request{})
	require.NoError(t, err)
	require.False(t, v.Decision)
	require.Equal(t, 2, fake.calls)
}

func TestDecide_Error(t *testing.T) {
	fake := &fakeCompletions{errs: []error{errors.New("connection refused")}}
	o, err := NewWithCompletions(fake, "system")
	require.NoError(t, err)

	_, err = o.Decide(t.Context(), &reviewprompt.Request{})
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, 1, fake.calls)
}

func TestNew_Validation(t *testing.T) {
	if _, err := NewWithCompletions(nil, "system"); err == nil {
		t.Error("nil completions: got nil error")
	}
	if _, err := NewWithCompletions(&fakeCompletions{}, ""); err == nil {
		t.Error("empty prompt: got nil error")
	}
	if _, err := NewWithCompletions(&fakeCompletions{}, "system", WithMaxTokens(0)); err == nil {
		t.Error("zero tokens: got nil error")
	}
}
