package capture

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema constrains the outer shape of a --save-final-state
// document: an object with a game_state object, plus arbitrary sibling
// metadata which comparison ignores.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"game_state": {"type": "object"}
	},
	"required": ["game_state"]
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("capture.schema.json", bytes.NewReader([]byte(documentSchema))); err != nil {
		panic(fmt.Sprintf("capture: add schema resource: %v", err))
	}
	s, err := c.Compile("capture.schema.json")
	if err != nil {
		panic(fmt.Sprintf("capture: compile schema: %v", err))
	}
	return s
}

// validateDocument checks the decoded document against the capture
// schema. The decoded value must be an encoding/json interface tree;
// json.Number leaves are accepted.
func validateDocument(decoded any) error {
	if err := compiledSchema.Validate(decoded); err != nil {
		return fmt.Errorf("capture document failed schema validation: %w", err)
	}
	return nil
}
