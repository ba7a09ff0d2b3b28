// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS). AppConfig carries everything specific to the chat
// service.
type AppConfig struct {
	// Storage backend: "mongo" (default) or "memory"
	StorageType string

	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Redis event fan-out; blank address disables publishing
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	EventsChannelPrefix string

	// Chat business limits
	EditWindow       time.Duration
	MessageMaxLength int
	ListMaxLimit     int

	// Per-user message sends per minute; 0 disables the limit
	SendRateLimit int

	// Shared token for the job module's hooks; blank disables them
	JobHookToken string
	// Hook requests per minute per client IP; 0 disables the limit
	HookRateLimit int

	// Seed a demo organization into the memory store
	DevSeed bool

	// Timeouts for store calls
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
