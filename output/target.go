// Package output routes serialized documents to their destination. Every
// emission carries the complete document, so targets overwrite rather than
// append.
package output

import (
	"io"
	"os"
)

// Target receives complete serialized documents. Emit may be called many
// times for one run (incremental mode); each call supersedes the previous
// document. Close releases whatever the target holds once the run is over.
type Target interface {
	Emit(doc []byte) error
	Close() error
}

// FileTarget rewrites a file from scratch on every emission, so the file
// always holds exactly one well-formed document. With Atomic set the
// document is staged in a sibling temp file and renamed into place, which
// keeps readers from ever observing a half-written report.
type FileTarget struct {
	Path   string
	Atomic bool
}

func NewFileTarget(path string) *FileTarget {
	return &FileTarget{Path: path}
}

func (t *FileTarget) Emit(doc []byte) error {
	if t.Atomic {
		tmp := t.Path + ".tmp"
		if err := os.WriteFile(tmp, doc, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, t.Path)
	}
	return os.WriteFile(t.Path, doc, 0o644)
}

func (t *FileTarget) Close() error {
	return nil
}

// WriterTarget emits to an io.Writer. Writers cannot rewind, so this target
// only makes sense for final-only emission (stdout, pipes, test buffers).
type WriterTarget struct {
	W io.Writer
}

func NewWriterTarget(w io.Writer) *WriterTarget {
	return &WriterTarget{W: w}
}

func (t *WriterTarget) Emit(doc []byte) error {
	_, err := t.W.Write(doc)
	return err
}

func (t *WriterTarget) Close() error {
	if c, ok := t.W.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
