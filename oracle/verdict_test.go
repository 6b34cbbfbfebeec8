/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package oracle_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chainguard.dev/curator/oracle"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		text string
		want oracle.Verdict
	}{{
		name: "camel case",
		text: `{"decision": true, "explanation": "Looks good", "commitTitle": "Add cat", "commitMessage": "Adds a cat picture"}`,
		want: oracle.Verdict{Decision: true, Explanation: "Looks good", CommitTitle: "Add cat", CommitMessage: "Adds a cat picture"},
	}, {
		name: "snake case",
		text: `{"decision": true, "explanation": "ok", "commit_title": "T", "commit_message": "M"}`,
		want: oracle.Verdict{Decision: true, Explanation: "ok", CommitTitle: "T", CommitMessage: "M"},
	}, {
		name: "partial commit fields",
		text: `{"decision": true, "explanation": "ok", "commit_title": "Only title"}`,
		want: oracle.Verdict{Decision: true, Explanation: "ok", CommitTitle: "Only title"},
	}, {
		name: "missing explanation",
		text: `{"decision": false}`,
		want: oracle.Verdict{Decision: false, Explanation: oracle.DefaultExplanation},
	}, {
		name: "fenced",
		text: "```json\n{\"decision\": false, \"explanation\": \"Off topic\"}\n```",
		want: oracle.Verdict{Decision: false, Explanation: "Off topic"},
	}, {
		name: "explanation containing a fence",
		text: "{\"decision\": false, \"explanation\": \"Use\\n```\\ncode\\n```\"}",
		want: oracle.Verdict{Decision: false, Explanation: "Use\n```\ncode\n```"},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oracle.ParseVerdict(tt.text)
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(oracle.Verdict{}, "Raw")); diff != "" {
				t.Errorf("ParseVerdict() mismatch (-want +got):\n%s", diff)
			}
			if got.Raw != tt.text {
				t.Errorf("Raw: got %q, want %q", got.Raw, tt.text)
			}
		})
	}
}

func TestParseVerdict_Fallback(t *testing.T) {
	for _, text := range []string{
		"I think this PR is great!",
		`{"decision": "yes", "explanation": "sure"}`,
		`{"explanation": "no decision here"}`,
		`{"decision": true, "explanation": "ok"} Actually, this violates the guidelines; reject.`,
		`{"decision": true, "explanation": "ok"}{"decision": false}`,
		"Sure:\n```json\n{\"decision\": true, \"explanation\": \"ok\"}\n```\nOn second thought, reject.",
		"```python\n{\"decision\": true}\n```",
		"",
	} {
		got := oracle.ParseVerdict(text)
		if got.Decision {
			t.Errorf("ParseVerdict(%q) accepted the pull request", text)
		}
		if !got.Synthetic {
			t.Errorf("ParseVerdict(%q) is not marked synthetic", text)
		}
		want := "Curator failed to return parsable JSON, auto-rejected : " + text
		if got.Explanation != want {
			t.Errorf("ParseVerdict(%q) explanation: got %q, want %q", text, got.Explanation, want)
		}
	}
}

func TestParsePrefilled(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantDecision bool
		wantSynth    bool
	}{{
		name:         "continuation",
		text:         `"decision": true, "explanation": "ok"}`,
		wantDecision: true,
	}, {
		name:         "model repeated the brace",
		text:         `{"decision": true, "explanation": "ok"}`,
		wantDecision: true,
	}, {
		name:      "garbage",
		text:      "nope",
		wantSynth: true,
	}, {
		name:      "trailing text",
		text:      `"decision": true, "explanation": "ok"} Actually, reject.`,
		wantSynth: true,
	}, {
		name:      "two objects",
		text:      `"decision": true, "explanation": "ok"}{"decision": false}`,
		wantSynth: true,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oracle.ParsePrefilled("{", tt.text)
			if got.Decision != tt.wantDecision || got.Synthetic != tt.wantSynth {
				t.Errorf("ParsePrefilled(): got decision=%v synthetic=%v, want %v/%v", got.Decision, got.Synthetic, tt.wantDecision, tt.wantSynth)
			}
		})
	}
	if got := oracle.ParsePrefilled("{", "nope"); got.Explanation != "Curator failed to return parsable JSON, auto-rejected : {nope" {
		t.Errorf("fallback explanation: got %q", got.Explanation)
	}
}

func TestUnavailable(t *testing.T) {
	v := oracle.Unavailable(errors.New("529 overloaded"))
	if v.Decision || !v.Synthetic {
		t.Errorf("Unavailable() = %+v, want synthetic rejection", v)
	}
	if !strings.Contains(v.Explanation, "529 overloaded") {
		t.Errorf("explanation does not name the failure: %q", v.Explanation)
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	builtin, err := oracle.LoadSystemPrompt("")
	if err != nil {
		t.Fatalf("LoadSystemPrompt(\"\") = %v", err)
	}
	for _, want := range []string{"guidelines.md", `"decision"`, `"required"`} {
		if !strings.Contains(builtin, want) {
			t.Errorf("built-in prompt missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "system_prompt.txt")
	if err := os.WriteFile(path, []byte("  Be strict.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	custom, err := oracle.LoadSystemPrompt(path)
	if err != nil {
		t.Fatalf("LoadSystemPrompt(%q) = %v", path, err)
	}
	if !strings.HasPrefix(custom, "Be strict.\n\nThe JSON object must satisfy this schema:") {
		t.Errorf("unexpected custom prompt: %q", custom)
	}

	if _, err := oracle.LoadSystemPrompt(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for a missing prompt file")
	}
}

func TestReplySchema(t *testing.T) {
	s := oracle.ReplySchema()
	if diff := cmp.Diff([]string{"decision", "explanation"}, s.Required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"decision", "explanation", "commitTitle", "commitMessage"} {
		if _, ok := s.Properties.Get(name); !ok {
			t.Errorf("schema missing property %q", name)
		}
	}
}
