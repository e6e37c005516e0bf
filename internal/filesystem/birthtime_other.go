//go:build !linux && !darwin && !windows

package filesystem

import "time"

func birthTime(string) (time.Time, error) {
	return time.Time{}, ErrBirthTimeUnsupported
}
