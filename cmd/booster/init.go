package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/booster/internal/config"
	"github.com/vango-dev/booster/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		appPath string
		format  string
		cdnURL  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter manifest",
		Long: `Create a booster manifest in the application root.

The manifest declares the bundles to publish. It is never overwritten.

Examples:
  booster init
  booster init -a ./web --cdn-url https://d1234.cloudfront.net/
  booster init --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(appPath, format, cdnURL)
		},
	}

	cmd.Flags().StringVarP(&appPath, "app-path", "a", ".", "Application root directory")
	cmd.Flags().StringVar(&format, "format", "json", "Manifest format: json, yaml or toml")
	cmd.Flags().StringVar(&cdnURL, "cdn-url", "https://example.cloudfront.net/", "CDN URL prefix")

	return cmd
}

func runInit(appPath, format, cdnURL string) error {
	st, err := os.Stat(appPath)
	if err != nil || !st.IsDir() {
		return errors.New("E101").WithDetail(appPath)
	}

	var name string
	switch format {
	case "json":
		name = config.FileName
	case "yaml", "yml":
		name = "booster.yaml"
	case "toml":
		name = "booster.toml"
	default:
		return errors.New("E104").WithDetailf("unknown format %q (want json, yaml or toml)", format)
	}

	if config.Exists(appPath) {
		return errors.New("E104").
			WithDetail("a manifest already exists in " + appPath).
			WithSuggestion("Edit the existing manifest instead")
	}

	m := starterManifest(cdnURL)
	if err := m.Validate(); err != nil {
		return err
	}

	path := filepath.Join(appPath, name)
	if err := m.SaveTo(path); err != nil {
		return err
	}

	success("Created %s", path)
	fmt.Println()
	fmt.Println("  Next steps:")
	fmt.Println("    1. List your bundles under \"libraries\"")
	fmt.Println("    2. booster deploy -a " + appPath + " --dry-run")
	fmt.Println()
	return nil
}

// starterManifest returns a manifest with one example bundle per kind.
func starterManifest(cdnURL string) *config.Manifest {
	m := config.New()
	m.CdnURLPrefix = cdnURL
	m.Libraries = []config.Library{
		{
			Name: "site.css",
			Files: []config.File{
				{Path: "/content/site.css"},
			},
		},
		{
			Name: "main.js",
			Files: []config.File{
				{Path: "/scripts/jquery.js"},
				{Path: "/scripts/app.js"},
				{Path: "/scripts/debug.js", IncludeIn: config.Local},
			},
		},
	}
	return m
}
