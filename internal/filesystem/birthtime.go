package filesystem

import (
	"errors"
	"time"
)

// ErrBirthTimeUnsupported is returned by BirthTime when the platform or the
// filesystem does not record file creation times.
var ErrBirthTimeUnsupported = errors.New("file creation time not available")

// BirthTime returns the creation time of the file at path.
func BirthTime(path string) (time.Time, error) {
	return birthTime(path)
}
