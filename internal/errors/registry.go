package errors

// Registered error codes.
const (
	CodeBindingNotFound  = "R001"
	CodeTemplateCompile  = "R002"
	CodeTemplateRender   = "R003"
	CodeFlushFailed      = "R004"
	CodeFlushPanicked    = "R005"
	CodeInvalidConfig    = "R006"
	CodeNodeHasNoRender  = "R007"
	CodeNotReactiveValue = "R008"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Hint     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodeBindingNotFound: {
		Category: CategoryBinding,
		Message:  "Binding data not found",
		Hint:     "Make sure the entity was wrapped by the graph and carries an id before nodes bind to it.",
	},
	CodeTemplateCompile: {
		Category: CategoryTemplate,
		Message:  "Template compilation failed",
		Hint:     "Check the ${...} expressions and that every variable they use is declared.",
	},
	CodeTemplateRender: {
		Category: CategoryTemplate,
		Message:  "Template render failed",
		Hint:     "An expression failed at render time; guard optional values with a conditional.",
	},
	CodeFlushFailed: {
		Category: CategoryScheduler,
		Message:  "Flush task failed",
	},
	CodeFlushPanicked: {
		Category: CategoryScheduler,
		Message:  "Flush task panicked",
	},
	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeNodeHasNoRender: {
		Category: CategoryBinding,
		Message:  "Bound node has no renderer",
		Hint:     "Give the node a data-nf-tpl template or a custom render function.",
	},
	CodeNotReactiveValue: {
		Category: CategoryBinding,
		Message:  "Value is not an object or array",
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
