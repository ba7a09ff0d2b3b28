// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	chatfeature "github.com/dalemusser/crewhub/internal/app/features/chat"
	healthfeature "github.com/dalemusser/crewhub/internal/app/features/health"
	jobhooksfeature "github.com/dalemusser/crewhub/internal/app/features/jobhooks"
	channelstore "github.com/dalemusser/crewhub/internal/app/store/channels"
	jobstore "github.com/dalemusser/crewhub/internal/app/store/jobs"
	messagestore "github.com/dalemusser/crewhub/internal/app/store/messages"
	userstore "github.com/dalemusser/crewhub/internal/app/store/users"
	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/chatmetrics"
	"github.com/dalemusser/crewhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on every request, so disabled users lose access at once.
	if deps.MongoDatabase != nil {
		sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := buildService(appCfg, deps, chatmetrics.New(reg), logger)
	return newRouter(appCfg, deps, svc, sessionMgr, reg, logger), nil
}

// buildService wires the chat service onto the configured store.
func buildService(appCfg AppConfig, deps DBDeps, metrics *chatmetrics.Metrics, logger *zap.Logger) *chat.Service {
	d := chat.Deps{
		Events:  deps.Events,
		Metrics: metrics,
	}
	if deps.Memory != nil {
		d.Channels = deps.Memory.Channels()
		d.Messages = deps.Memory.Messages()
		d.Directory = deps.Memory.Directory()
		d.Jobs = deps.Memory.Jobs()
	} else {
		d.Channels = channelstore.New(deps.MongoDatabase)
		d.Messages = messagestore.New(deps.MongoDatabase)
		d.Directory = userstore.New(deps.MongoDatabase)
		d.Jobs = jobstore.New(deps.MongoDatabase)
	}
	return chat.New(d, appCfg.chatConfig(), logger.Named("chat"))
}

func newRouter(appCfg AppConfig, deps DBDeps, svc *chat.Service, sessionMgr *auth.SessionManager, reg *prometheus.Registry, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Chat API
	chatHandler := chatfeature.NewHandler(svc, logger)
	r.Mount("/api/chat", chatfeature.Routes(chatHandler, sessionMgr, perMinute(appCfg.SendRateLimit)))

	// Job module hooks
	hooksHandler := jobhooksfeature.NewHandler(svc, appCfg.JobHookToken, logger)
	r.Mount("/hooks/jobs", jobhooksfeature.Routes(hooksHandler, perMinute(appCfg.HookRateLimit)))

	return r
}

// perMinute returns a limiter for n requests a minute, or nil when n is 0.
func perMinute(n int) *ratelimit.Limiter {
	if n <= 0 {
		return nil
	}
	return ratelimit.New(n, time.Minute)
}
