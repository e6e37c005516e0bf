package memory

import (
	"errors"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

const (
	// DefaultRatio is the share of the memory limit given to the Go heap. The
	// rest is left to libvips and the conversion utility.
	DefaultRatio = 0.75

	// EnvLimit and EnvRatio configure the limit explicitly.
	EnvLimit = "CASKET_MEMORY_LIMIT"
	EnvRatio = "CASKET_MEMORY_RATIO"
)

// Limit sources.
const (
	SourceGOMEMLIMIT = "GOMEMLIMIT"
	SourceEnv        = EnvLimit
	SourceCgroup     = "cgroup"
	SourceNone       = "none"
)

// cgroupMemoryMax is the cgroup v2 memory limit of the current process.
var cgroupMemoryMax = "/sys/fs/cgroup/memory.max"

var errNoCgroupLimit = errors.New("no cgroup memory limit")

// Limit describes the soft memory limit in effect.
type Limit struct {
	// Source is where the limit came from, SourceNone when unset.
	Source string
	// Available is the memory the process may use in bytes, 0 if unknown.
	Available int64
	// GoLimit is the soft limit set for the Go runtime, 0 if unset.
	GoLimit int64
	Ratio   float64
}

// Configure sets the Go soft memory limit from, in order of precedence,
// GOMEMLIMIT, CASKET_MEMORY_LIMIT (bytes, or with a KiB/MiB/GiB suffix) and
// the cgroup v2 limit of the process. Call it before decoding anything.
func Configure() Limit {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		limit := Limit{Source: SourceNone}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.Source = SourceGOMEMLIMIT
			limit.GoLimit = current
		}
		logging.Debug("GOMEMLIMIT set via environment: %s", env)
		return limit
	}

	available, source := int64(0), SourceNone
	if env := os.Getenv(EnvLimit); env != "" {
		n, err := ParseSize(env)
		if err != nil {
			logging.Warn("Ignoring %s=%q: %v", EnvLimit, env, err)
		} else {
			available, source = n, SourceEnv
		}
	}
	if source == SourceNone {
		n, err := readCgroupLimit(cgroupMemoryMax)
		if err != nil {
			logging.Debug("No memory limit found: %v", err)
			return Limit{Source: SourceNone}
		}
		available, source = n, SourceCgroup
	}

	ratio := ratioFromEnv()
	goLimit := int64(float64(available) * ratio)
	debug.SetMemoryLimit(goLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s from %s)",
		FormatBytes(goLimit), ratio*100, FormatBytes(available), source)

	return Limit{Source: source, Available: available, GoLimit: goLimit, Ratio: ratio}
}

func ratioFromEnv() float64 {
	env := os.Getenv(EnvRatio)
	if env == "" {
		return DefaultRatio
	}
	r, err := strconv.ParseFloat(env, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("%s %q must be in (0, 1], using %.2f", EnvRatio, env, DefaultRatio)
		return DefaultRatio
	}
	return r
}

// readCgroupLimit reads a cgroup v2 memory.max file. "max" means unlimited.
func readCgroupLimit(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "max" || s == "" {
		return 0, errNoCgroupLimit
	}
	return strconv.ParseInt(s, 10, 64)
}

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"TiB", 1 << 40},
	{"B", 1},
}

// ParseSize parses a byte count with an optional binary suffix, e.g.
// "1073741824", "512MiB" or "2GiB".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	mult := int64(1)
	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(s, sf.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sf.suffix))
			mult = sf.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("size must be positive")
	}
	if n > math.MaxInt64/mult {
		return 0, errors.New("size overflows")
	}
	return n * mult, nil
}

// FormatBytes formats bytes into human-readable string
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
