// Package errors provides structured, actionable error messages for booster.
//
// Every failure that ends a deployment run is reported as a *BoosterError
// carrying a registered code, a category and an optional hint:
//
//	err := errors.New("E102").
//	    WithDetail("No booster.json found in /srv/app").
//	    WithSuggestion("Run 'booster init' to create one")
//
//	fmt.Print(err.Format())
//	// ERROR E102: Manifest not found
//	//
//	//   No booster.json found in /srv/app
//	//
//	//   Hint: Run 'booster init' to create one
//
// # Categories and exit codes
//
// Errors fall into two categories, each mapped to its own process exit
// status by ExitCode:
//   - input: invalid root path, missing or unparsable manifest, invalid
//     operator arguments. Raised before any file or network work starts.
//   - processing: failures during assembly, minification, compression or
//     publishing. Artifacts uploaded before the failure stay published.
package errors
