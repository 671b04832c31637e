package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Input Errors (E100-E199)
	// ============================================

	"E101": {
		Category: CategoryInput,
		Message:  "Application root not found",
		Detail:   "The --app-path directory does not exist.",
	},
	"E102": {
		Category: CategoryInput,
		Message:  "Manifest not found",
	},
	"E103": {
		Category: CategoryInput,
		Message:  "Invalid manifest",
	},
	"E104": {
		Category: CategoryInput,
		Message:  "Invalid argument",
	},
	"E105": {
		Category: CategoryInput,
		Message:  "Asset version could not be saved",
		Detail:   "The incremented version could not be written back to the manifest.",
	},
	"E106": {
		Category: CategoryInput,
		Message:  "External minifier not found",
	},

	// ============================================
	// Processing Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryProcessing,
		Message:  "Asset file could not be read",
	},
	"E202": {
		Category: CategoryProcessing,
		Message:  "Minification failed",
	},
	"E203": {
		Category: CategoryProcessing,
		Message:  "Compression failed",
	},
	"E204": {
		Category: CategoryProcessing,
		Message:  "Publish failed",
		Detail:   "Artifacts uploaded before this failure remain published. Re-running the deployment overwrites them.",
	},
	"E205": {
		Category: CategoryProcessing,
		Message:  "Directory scan failed",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
