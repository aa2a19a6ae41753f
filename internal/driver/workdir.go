package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workdir is the isolated working area for one trial. Snapshot handles
// and state captures live here and nowhere else, so concurrent trials
// never contend on a shared path. Cleanup runs on every exit path.
type Workdir struct {
	dir string
}

// NewWorkdir creates a uniquely named directory under base (or the
// system temp directory when base is empty).
func NewWorkdir(base string) (*Workdir, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "stopgo-trial-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trial workdir: %w", err)
	}
	return &Workdir{dir: dir}, nil
}

// Dir returns the workdir root.
func (w *Workdir) Dir() string { return w.dir }

// Path returns an absolute path for a file inside the workdir.
func (w *Workdir) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Cleanup removes the workdir and everything in it.
func (w *Workdir) Cleanup() error {
	return os.RemoveAll(w.dir)
}
