package providers

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "clean object",
			content: `{"cover_prompt":"a fox"}`,
			want:    `{"cover_prompt":"a fox"}`,
		},
		{
			name:    "markdown fence",
			content: "```json\n{\"cover_prompt\":\"a fox\"}\n```",
			want:    `{"cover_prompt":"a fox"}`,
		},
		{
			name:    "fence without language tag",
			content: "```\n{\"items\":[]}\n```",
			want:    `{"items":[]}`,
		},
		{
			name:    "object buried in prose",
			content: `Here is the plan you asked for: {"items":[]} hope that helps!`,
			want:    `{"items":[]}`,
		},
		{
			name:    "leading and trailing whitespace",
			content: "  \n {\"a\":1} \n ",
			want:    `{"a":1}`,
		},
		{
			name:    "empty input",
			content: "   ",
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "I could not produce a plan.",
			wantErr: true,
		},
		{
			name:    "truncated object",
			content: `{"cover_prompt": "a fox`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsed %q, expected an error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			// Compare after normalization so key ordering doesn't matter.
			var wantDoc, gotDoc any
			if err := json.Unmarshal([]byte(tt.want), &wantDoc); err != nil {
				t.Fatalf("bad want fixture: %v", err)
			}
			if err := json.Unmarshal(got, &gotDoc); err != nil {
				t.Fatalf("parsed output is not JSON: %v", err)
			}
			wantNorm, _ := json.Marshal(wantDoc)
			gotNorm, _ := json.Marshal(gotDoc)
			if string(wantNorm) != string(gotNorm) {
				t.Errorf("parsed = %s, want %s", gotNorm, wantNorm)
			}
		})
	}
}

func TestValidateStructuredJSON(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"required": ["cover_prompt"],
		"properties": {
			"cover_prompt": {"type": "string", "minLength": 1}
		}
	}`)

	if err := validateStructuredJSON(schema, json.RawMessage(`{"cover_prompt":"a fox"}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := validateStructuredJSON(schema, json.RawMessage(`{"cover_prompt":""}`)); err == nil {
		t.Error("empty cover prompt accepted")
	}
	if err := validateStructuredJSON(schema, json.RawMessage(`{}`)); err == nil {
		t.Error("missing cover prompt accepted")
	}
}
