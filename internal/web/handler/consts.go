package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// APIPath is the base path of the JSON API.
	APIPath = RootPath + "api/v1"

	// DefaultPageSize for pagination.
	DefaultPageSize = 50

	// MaxPageSize callers may request.
	MaxPageSize = 200

	// ErrNilACDFatalLogMsg is used if app, cfg, db or engine pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg, db or engine is nil"
)
