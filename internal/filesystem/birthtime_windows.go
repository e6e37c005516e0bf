//go:build windows

package filesystem

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

func birthTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	attr, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, ErrBirthTimeUnsupported
	}
	return time.Unix(0, attr.CreationTime.Nanoseconds()), nil
}
