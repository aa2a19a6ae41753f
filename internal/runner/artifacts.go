package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/trace"
)

// retainArtifacts writes the filtered action logs and canonical state
// captures for one trial into the scenario's artifact directory. These
// are exactly the inputs the comparator saw, so a reported divergence
// can be inspected offline.
func retainArtifacts(sc *Scenario, trialIndex int, contExtract, segExtract *trace.Extract, contOut, segOut *driver.Output) error {
	dir := sc.ArtifactDir
	if dir == "" {
		dir = "artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	prefix := fmt.Sprintf("%s_trial%d", safeName(sc.Name), trialIndex)

	files := map[string][]byte{
		prefix + "_continuous.log": []byte(strings.Join(contExtract.Actions, "\n") + "\n"),
		prefix + "_segmented.log":  []byte(strings.Join(segExtract.Actions, "\n") + "\n"),
	}

	if contOut.Capture != nil {
		data, err := contOut.Capture.Canonical()
		if err != nil {
			return fmt.Errorf("canonicalize continuous capture: %w", err)
		}
		files[prefix+"_continuous_state.json"] = data
	}
	if segOut.Capture != nil {
		data, err := segOut.Capture.Canonical()
		if err != nil {
			return fmt.Errorf("canonicalize segmented capture: %w", err)
		}
		files[prefix+"_segmented_state.json"] = data
	}

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write artifact %s: %w", name, err)
		}
	}
	return nil
}

// safeName sanitizes a scenario name for use in filenames.
func safeName(name string) string {
	if name == "" {
		return "scenario"
	}
	r := strings.NewReplacer(" ", "_", "/", "_", string(filepath.Separator), "_")
	return r.Replace(name)
}
