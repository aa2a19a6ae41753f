package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// MatrixConfig is a batch verification matrix: every deck is paired
// with every matchup under every seed.
type MatrixConfig struct {
	// Sim is the simulation binary path. A --sim flag overrides it.
	Sim string `json:"sim"`

	// Replays and Stops apply to every cell.
	Replays int `json:"replays"`
	Stops   int `json:"stops"`

	Seeds    []int64        `json:"seeds"`
	Decks    []MatrixDeck   `json:"decks"`
	Matchups []MatrixPairing `json:"matchups"`
}

// MatrixDeck names one deck file.
type MatrixDeck struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// MatrixPairing is one strategy assignment.
type MatrixPairing struct {
	P1 string `json:"p1"`
	P2 string `json:"p2"`
}

// matrixSchema constrains matrix configs at load time. Unifying the
// file's value with this schema rejects unknown strategies, empty deck
// lists, and non-positive counts before any process is spawned.
const matrixSchema = `
#Strategy: "random" | "heuristic" | "zero" | "replay"

matrix: {
	sim?:    string
	replays: int & >0 | *1
	stops:   int & >0 | *5
	seeds:   [...int64] & [_, ...]
	decks: [...{
		name: string & !=""
		path: string & !=""
	}] & [_, ...]
	matchups: [...{
		p1: #Strategy
		p2: #Strategy
	}] & [_, ...]
}
`

// LoadMatrixConfig loads and validates a CUE matrix definition.
// The file must declare a top-level "matrix" struct.
func LoadMatrixConfig(path string) (*MatrixConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix config: %w", err)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(matrixSchema, cue.Filename("matrix.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("internal: matrix schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filepath.Base(path)))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse matrix config: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid matrix config: %w", err)
	}

	matrixVal := unified.LookupPath(cue.ParsePath("matrix"))
	if !matrixVal.Exists() {
		return nil, fmt.Errorf("matrix config must declare a top-level \"matrix\" struct")
	}

	var cfg MatrixConfig
	if err := matrixVal.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode matrix config: %w", err)
	}

	// The schema already constrains strategies; re-check here so a
	// schema regression cannot smuggle bad selectors into the driver.
	for _, m := range cfg.Matchups {
		for _, s := range []string{m.P1, m.P2} {
			if !slices.Contains(validStrategies, s) {
				return nil, fmt.Errorf("invalid strategy %q in matchups", s)
			}
		}
	}

	return &cfg, nil
}
