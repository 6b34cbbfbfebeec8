/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ReplySchema returns the JSON schema of Reply.
func ReplySchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return r.Reflect(&Reply{})
}

// WithSchema appends the reply schema to a system instruction.
func WithSchema(prompt string) (string, error) {
	b, err := json.MarshalIndent(ReplySchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling reply schema: %w", err)
	}
	return fmt.Sprintf("%s\n\nThe JSON object must satisfy this schema:\n%s", prompt, b), nil
}
