package bundle

import "fmt"

// Op names the assembly step that failed.
type Op string

const (
	OpRead   Op = "read"
	OpMinify Op = "minify"
)

// Error records a failed assembly step and the file or bundle it concerns.
type Error struct {
	Op   Op
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
