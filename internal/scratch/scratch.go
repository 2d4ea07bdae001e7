// Package scratch hands out uniquely named temporary files and
// guarantees their removal through paired Release calls, so raster
// intermediates never outlive the request that produced them.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Dir is a scratch directory. It is safe for concurrent use; every
// Create returns a uniquely named artifact.
type Dir struct {
	root string
}

// New prepares the scratch directory rooted at root, creating it if
// needed. An empty root uses a private subdirectory of the system temp
// directory.
func New(root string) (*Dir, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "trackcard")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the scratch directory path.
func (d *Dir) Root() string {
	return d.root
}

// Artifact is a single scratch file. Release removes it; callers pair
// every Create with a deferred Release so the file is deleted on
// success, error, and cancellation paths alike.
type Artifact struct {
	Path string

	once sync.Once
	err  error
}

// Create reserves and creates a new empty artifact file. ext, when
// non-empty, becomes the file extension.
func (d *Dir) Create(ext string) (*Artifact, error) {
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(d.root, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}

	return &Artifact{Path: path}, nil
}

// Release removes the artifact. It is idempotent and safe to call from
// multiple goroutines; only the first call performs the removal.
func (a *Artifact) Release() error {
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			a.err = err
		}
	})
	return a.err
}
