// Package deploy runs a deployment: it publishes the binary assets and
// the CSS and JavaScript bundles of an application under a new version
// folder.
//
// # Usage
//
//	d := deploy.New(deploy.Options{
//	    AppPath: "/srv/app",
//	    Store:   store,
//	})
//	result, err := d.Deploy(ctx)
//	if err != nil {
//	    os.Exit(errors.ExitCode(err))
//	}
//
//	fmt.Printf("Deployed version %d in %s\n", result.Version, result.Duration)
//
// # Steps
//
// A run is strictly sequential:
//
//  1. load the manifest
//  2. resolve the version (persisting it unless deferred)
//  3. scan directories and publish binary assets
//  4. publish CSS: individual files if enabled, then manifest bundles
//  5. publish JavaScript the same way
//  6. persist a deferred version
//
// # Output Structure
//
//	[subdir/]6/
//	├── images/logo.png     # binary assets, unmodified
//	├── site.min.css        # minified
//	├── site.gzip.css       # minified, Content-Encoding: gzip
//	├── site.dbg.css        # raw, only with a debug key
//	├── main.min.js
//	└── main.gzip.js
package deploy
