package constants

import "time"

// Context keys set by middleware
const (
	ContextKeyIdentity  = "identity"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	BearerPrefix        = "Bearer "
)

// Credential rules
const (
	MinPasswordLength = 6
	DefaultTokenTTL   = time.Hour
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AI task drafting
const (
	MaxAIGeneratedTasks = 20
)
