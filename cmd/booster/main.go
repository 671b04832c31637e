package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/booster/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// consoleColor enables ANSI colors in the success/warn helpers.
var consoleColor = false

// run executes the CLI and returns the process exit status: 0 on success,
// 1 for input errors, 2 for failures during the deployment itself.
func run(args []string) int {
	consoleColor = isTerminal(os.Stdout)
	return execute(args, os.Stderr, isTerminal(os.Stderr))
}

// execute runs the root command and prints a failure to stderr, colored
// only when color is set.
func execute(args []string, stderr io.Writer, color bool) int {
	if color {
		errors.EnableColors()
	} else {
		errors.DisableColors()
	}

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(stderr, err)
		return errors.ExitCode(err)
	}
	return errors.ExitSuccess
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "booster",
		Short: "Versioned CDN deployment for JavaScript, CSS and images",
		Long: `Booster publishes the static assets of a web application to a CDN bucket.

Every deployment goes to a new version folder, so assets can be cached
for a year and a redeploy never serves stale files:

  • Bundles from booster.json, minified and gzipped
  • Pre-minified .min.js files used as shipped
  • Images and other binary assets copied unmodified
  • AWS S3 or any S3-compatible store`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.New("E104").WithDetail(err.Error())
	})

	rootCmd.AddCommand(
		deployCmd(),
		initCmd(),
		mimeCmd(),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

func paint(code, text string) string {
	if !consoleColor {
		return text
	}
	return code + text + "\033[0m"
}
