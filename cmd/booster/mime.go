package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/booster/internal/publish"
)

func mimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mime <file-or-ext>...",
		Short: "Print the content type used for uploads",
		Long: `Print the Content-Type each file or extension is uploaded with.

Examples:
  booster mime logo.PNG
  booster mime .css js swf`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, arg := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, publish.MimeType(arg))
			}
		},
	}
}
