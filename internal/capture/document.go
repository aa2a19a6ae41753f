package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// stateKey is the top-level substructure holding semantic game state.
// Sibling keys are snapshot metadata and never participate in comparison.
const stateKey = "game_state"

// Document is a parsed --save-final-state file.
type Document struct {
	// State is the semantic game_state substructure, unstripped.
	State Value

	// Path is where the document was read from, for diagnostics.
	Path string
}

// ParseDocument decodes and schema-validates a capture document.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse capture document: %w", err)
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("capture document is not an object")
	}

	state, err := fromGo(obj[stateKey])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", stateKey, err)
	}

	return &Document{State: state}, nil
}

// LoadDocument reads and parses a capture document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture document: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Canonical returns the denylist-stripped, canonically serialized
// semantic state. Two documents with identical semantic content yield
// identical bytes regardless of incidental-field values or original key
// ordering.
func (d *Document) Canonical() ([]byte, error) {
	return MarshalCanonical(Strip(d.State))
}

// CanonicalState returns the stripped Value tree for structural diffing.
func (d *Document) CanonicalState() Value {
	return Strip(d.State)
}
