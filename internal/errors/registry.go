package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Registered error codes.
const (
	CodeHookWithoutOwner    = "E001"
	CodeRenderLoop          = "E002"
	CodeHookOnDisposedOwner = "E003"

	CodeConfigNotFound    = "E100"
	CodeConfigSyntax      = "E101"
	CodeConfigFormat      = "E102"
	CodeConfigInvalidAddr = "E103"
	CodeConfigInvalid     = "E104"

	CodeInvalidFlag    = "E140"
	CodeServerFailed   = "E141"
	CodeUnknownCommand = "E142"

	CodeStoreNotFound   = "E160"
	CodeDuplicateStore  = "E161"
	CodeWebSocketFailed = "E162"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E099)
	// ============================================

	CodeHookWithoutOwner: {
		Category: CategoryRuntime,
		Message:  "Hook called without an owner",
		Detail:   "Store hooks must be called from a component's render function with the component's Owner.",
	},
	CodeRenderLoop: {
		Category: CategoryRuntime,
		Message:  "Render loop did not settle",
		Detail:   "Components kept marking each other dirty. This usually means a component writes to a store it reads on every render.",
	},
	CodeHookOnDisposedOwner: {
		Category: CategoryRuntime,
		Message:  "Hook called on a disposed owner",
		Detail:   "The component was unmounted before the hook ran. Hooks must only run while their component renders.",
	},

	// ============================================
	// Config Errors (E100-E139)
	// ============================================

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The config file passed with --config does not exist.",
	},
	CodeConfigSyntax: {
		Category: CategoryConfig,
		Message:  "Invalid config syntax",
		Detail:   "The config file could not be parsed.",
	},
	CodeConfigFormat: {
		Category: CategoryConfig,
		Message:  "Unsupported config format",
		Detail:   "Config files must end in .json, .yaml or .yml.",
	},
	CodeConfigInvalidAddr: {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The inspector address must be host:port, for example localhost:7070.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config value is out of range.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	CodeInvalidFlag: {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command-line flag has a value the command cannot use.",
	},
	CodeServerFailed: {
		Category: CategoryCLI,
		Message:  "Inspector server failed",
		Detail:   "The inspector HTTP server stopped with an error.",
	},
	CodeUnknownCommand: {
		Category: CategoryCLI,
		Message:  "Unknown command",
		Detail:   "Run vstore --help to list the available commands.",
	},

	// ============================================
	// Devtools Errors (E160-E179)
	// ============================================

	CodeStoreNotFound: {
		Category: CategoryDevtools,
		Message:  "Store not found",
		Detail:   "No store with this name is registered with the inspector.",
	},
	CodeDuplicateStore: {
		Category: CategoryDevtools,
		Message:  "Store already registered",
		Detail:   "Store names must be unique within an inspector registry.",
	},
	CodeWebSocketFailed: {
		Category: CategoryDevtools,
		Message:  "WebSocket upgrade failed",
		Detail:   "The inspector could not open a live stream for the request.",
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

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
