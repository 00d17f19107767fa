package pipeline

import "fmt"

// FilesystemError wraps an I/O failure while exporting records.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Errorf("filesystem: %s %s: %w", e.Op, e.Path, e.Err).Error()
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
