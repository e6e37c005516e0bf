package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// Converter turns input into a file of the given format at output.
type Converter interface {
	Convert(ctx context.Context, input, output, format string) error
}

// CommandConverter runs an external utility. Argv elements may contain the
// placeholders {input}, {output} and {format}.
type CommandConverter struct {
	Argv []string
}

var errEmptyCommand = errors.New("empty convert command")

// Convert runs the command; its exit status decides success.
func (c CommandConverter) Convert(ctx context.Context, input, output, format string) error {
	if len(c.Argv) == 0 {
		return errEmptyCommand
	}

	r := strings.NewReplacer("{input}", input, "{output}", output, "{format}", format)
	args := make([]string, len(c.Argv))
	for i, a := range c.Argv {
		args[i] = r.Replace(a)
	}

	logging.Debug("convert: %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ThumbnailConvertDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("%s failed: %v, stderr: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Default argv templates per utility.
var converterTemplates = map[string][]string{
	"sips":         {"sips", "-s", "format", "{format}", "{input}", "--out", "{output}"},
	"heif-convert": {"heif-convert", "{input}", "{output}"},
	"magick":       {"magick", "{input}", "{output}"},
	"convert":      {"convert", "{input}", "{output}"},
}

// DetectConverter returns the platform converter. An explicit argv wins;
// otherwise sips is used on macOS and elsewhere the first of heif-convert,
// magick and convert found on PATH. Nil means no converter is available.
func DetectConverter(argv []string) Converter {
	if len(argv) > 0 {
		return CommandConverter{Argv: argv}
	}

	candidates := []string{"heif-convert", "magick", "convert"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"sips"}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			logging.Debug("using %s for conversion", path)
			return CommandConverter{Argv: converterTemplates[name]}
		}
	}

	logging.Debug("no conversion utility found; HEIF thumbnails disabled")
	return nil
}
