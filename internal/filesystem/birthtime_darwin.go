//go:build darwin

package filesystem

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Birthtimespec.Sec == 0 && st.Birthtimespec.Nsec == 0 {
		return time.Time{}, ErrBirthTimeUnsupported
	}
	return time.Unix(st.Birthtimespec.Unix()), nil
}
