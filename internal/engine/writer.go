package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// writeStrategy is one low-level file write primitive. The host environment
// offers streaming writes or sync access handles but never both, and which
// one actually works is unknown until attempted, so strategies are tried in
// order on every write with the first success winning.
type writeStrategy interface {
	Name() string
	Write(path string, data []byte) error
}

// streamWriter is the streaming create/write/close primitive.
type streamWriter struct{}

func (streamWriter) Name() string { return "stream" }

func (streamWriter) Write(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// syncWriter is the synchronous access-handle primitive: open, truncate,
// write at offset 0, flush, close.
type syncWriter struct{}

func (syncWriter) Name() string { return "sync" }

func (syncWriter) Write(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o660)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", path, err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return nil
}
