package ingest

import (
	"errors"
	"fmt"
)

// ErrNoFileName is returned for a candidate path without a final element.
var ErrNoFileName = errors.New("path has no file name")

// Stages at which a single file can fail.
const (
	StagePath  = "path"
	StageMkdir = "mkdir"
	StageCopy  = "copy"
)

// FileError is a per-file failure. The file is skipped and the run goes on.
type FileError struct {
	Path  string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
