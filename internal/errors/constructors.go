package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigurationError(message string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, message)
}

func ConfigRequired(field string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *PagegenError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Route expansion errors

func MissingRouteName(pattern string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, "route has no name; routes need names to be built").
		WithContext("pattern", pattern)
}

func ResolverNotFound(kind, route, param string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, "no "+kind+" resolver found").
		WithContext("route", route).
		WithContext("param", param)
}

func ResolverFailed(kind, route, param string, cause error) *PagegenError {
	return Wrap(cause, CategoryConfig, SeverityFatal, kind+" resolver failed").
		WithContext("route", route).
		WithContext("param", param)
}

func LocalNameCollision(route, param string) *PagegenError {
	return New(CategoryConfig, SeverityFatal, "entry local name equals path parameter name").
		WithContext("route", route).
		WithContext("param", param)
}

func LinkCompileFailed(route string, cause error) *PagegenError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "failed compiling URL for route").
		WithContext("route", route)
}

func RouteNotMatched(path string) *PagegenError {
	return New(CategoryValidation, SeverityFatal, "path does not match any route").
		WithContext("path", path)
}

// Page resolution errors

func HandlerFailed(route string, cause error) *PagegenError {
	return Wrap(cause, CategoryRender, SeverityFatal, "route handler failed").
		WithContext("route", route)
}

func RedirectFailed(from, to string, cause error) *PagegenError {
	return Wrap(cause, CategoryRedirect, SeverityFatal, "redirect target could not be resolved").
		WithContext("from", from).
		WithContext("to", to)
}

func TemplateNotFound(component string) *PagegenError {
	return New(CategoryTemplate, SeverityFatal, "could not resolve a template path for component").
		WithContext("component", component)
}

func TemplateFailed(path string, cause error) *PagegenError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template could not be compiled").
		WithContext("template", path)
}

func RenderFailed(output string, cause error) *PagegenError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page render failed").
		WithContext("output", output)
}

// Persistence errors

func WriteFailed(output string, cause error) *PagegenError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "page write failed").
		WithContext("output", output)
}

func LedgerFailed(operation string, cause error) *PagegenError {
	return Wrap(cause, CategoryLedger, SeverityFatal, "ledger operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *PagegenError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
