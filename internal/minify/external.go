package minify

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// External minifies by running an executable over temporary files.
type External struct {
	// Command is the executable path.
	Command string

	// Args are passed to Command with "{in}" and "{out}" replaced.
	Args []string

	// Dir is the working directory of the process.
	Dir string

	// RetryDelay is the pause before the single re-read of the output file.
	RetryDelay time.Duration

	Logger zerolog.Logger

	// readFile is swapped in tests.
	readFile func(string) ([]byte, error)
}

// Minify implements Minifier. Both temporary files are removed whatever
// the outcome.
func (e *External) Minify(ctx context.Context, kind Kind, src string) (string, error) {
	in, err := writeTemp("booster-in-*"+kind.Ext(), src)
	if err != nil {
		return "", err
	}
	defer os.Remove(in)

	out, err := writeTemp("booster-out-*"+kind.Ext(), "")
	if err != nil {
		return "", err
	}
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, e.Command, expandArgs(e.Args, in, out)...)
	cmd.Dir = e.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.Logger.Debug().Str("command", e.Command).Int("bytes", len(src)).Msg("running external minifier")
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "%s: %s", e.Command, strings.TrimSpace(stderr.String()))
	}

	read := e.readFile
	if read == nil {
		read = os.ReadFile
	}

	data, err := read(out)
	if err != nil {
		delay := e.RetryDelay
		if delay <= 0 {
			delay = DefaultRetryDelay
		}
		e.Logger.Warn().Err(err).Dur("delay", delay).Msg("minifier output not readable, retrying once")
		time.Sleep(delay)

		data, err = read(out)
		if err != nil {
			return "", errors.Wrap(err, "read minifier output")
		}
	}
	return string(data), nil
}

func writeTemp(pattern, content string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", errors.WithStack(err)
	}
	name := f.Name()
	_, werr := f.WriteString(content)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		if werr != nil {
			return "", errors.WithStack(werr)
		}
		return "", errors.WithStack(cerr)
	}
	return name, nil
}

func expandArgs(args []string, in, out string) []string {
	expanded := make([]string, len(args))
	r := strings.NewReplacer("{in}", in, "{out}", out)
	for i, a := range args {
		expanded[i] = r.Replace(a)
	}
	return expanded
}
