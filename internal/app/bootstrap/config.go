// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CrewHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CREWHUB_MONGO_URI, CREWHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "storage_type", Default: "mongo", Desc: "Chat storage backend: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "crewhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "crewhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Event fan-out
	{Name: "redis_addr", Default: "", Desc: "Redis address for chat events (blank disables publishing)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "events_channel_prefix", Default: "crewhub", Desc: "Prefix of the per-organization pub/sub channel"},

	// Chat limits
	{Name: "edit_window", Default: "15m", Desc: "How long a sender may edit or delete a message"},
	{Name: "message_max_length", Default: chat.DefaultMaxContentLength, Desc: "Maximum message length in characters"},
	{Name: "list_max_limit", Default: chat.DefaultMaxListLimit, Desc: "Maximum messages returned by one history request"},
	{Name: "send_rate_limit", Default: 60, Desc: "Messages a user may send per minute (0 disables)"},

	// Job module hooks
	{Name: "job_hook_token", Default: "", Desc: "Bearer token the job module presents to /hooks/jobs (blank disables)"},
	{Name: "hook_rate_limit", Default: 600, Desc: "Job hook requests per minute per client IP (0 disables)"},

	{Name: "dev_seed", Default: false, Desc: "Seed a demo organization when storage_type is 'memory'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and aggregate operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for startup schema work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE merges flags > env (CREWHUB_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CREWHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StorageType:      strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		RedisAddr:           appValues.String("redis_addr"),
		RedisPassword:       appValues.String("redis_password"),
		RedisDB:             appValues.Int("redis_db"),
		EventsChannelPrefix: appValues.String("events_channel_prefix"),

		EditWindow:       appValues.Duration("edit_window", chat.DefaultEditWindow),
		MessageMaxLength: appValues.Int("message_max_length"),
		ListMaxLimit:     appValues.Int("list_max_limit"),
		SendRateLimit:    appValues.Int("send_rate_limit"),

		JobHookToken:  appValues.String("job_hook_token"),
		HookRateLimit: appValues.Int("hook_rate_limit"),
		DevSeed:       appValues.Bool("dev_seed"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	return validateAppConfig(appCfg, logger)
}

func validateAppConfig(appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StorageType {
	case storageMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required")
		}
	case storageMemory:
		logger.Warn("chat storage is in memory; data is lost on restart")
	default:
		return fmt.Errorf("storage_type must be %q or %q, got %q", storageMongo, storageMemory, appCfg.StorageType)
	}

	if appCfg.EditWindow <= 0 {
		return fmt.Errorf("edit_window must be positive, got %s", appCfg.EditWindow)
	}
	if appCfg.MessageMaxLength <= 0 {
		return fmt.Errorf("message_max_length must be positive, got %d", appCfg.MessageMaxLength)
	}
	if appCfg.ListMaxLimit <= 0 {
		return fmt.Errorf("list_max_limit must be positive, got %d", appCfg.ListMaxLimit)
	}
	if appCfg.SendRateLimit < 0 || appCfg.HookRateLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if appCfg.JobHookToken != "" && len(appCfg.JobHookToken) < 16 {
		return fmt.Errorf("job_hook_token must be at least 16 characters")
	}
	if appCfg.JobHookToken == "" {
		logger.Info("job hooks disabled (no job_hook_token)")
	}
	return nil
}

// chatConfig projects the business limits into the chat service config.
func (c AppConfig) chatConfig() chat.Config {
	return chat.Config{
		EditWindow:       c.EditWindow,
		MaxContentLength: c.MessageMaxLength,
		MaxListLimit:     c.ListMaxLimit,
	}
}
