// Package server exposes the HTTP API: commission reports over persisted
// records, the manual sync trigger and the OAuth callback.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clustersystems/commission-tracker/internal/auth"
	commissiondomain "github.com/clustersystems/commission-tracker/internal/commission/domain"
	"github.com/clustersystems/commission-tracker/internal/config"
	credentialdomain "github.com/clustersystems/commission-tracker/internal/credential/domain"
	"github.com/clustersystems/commission-tracker/internal/observability"
	obsmiddleware "github.com/clustersystems/commission-tracker/internal/observability/logger"
	obsmetrics "github.com/clustersystems/commission-tracker/internal/observability/metrics"
	obstracing "github.com/clustersystems/commission-tracker/internal/observability/tracing"
	"github.com/clustersystems/commission-tracker/internal/scheduler"
	"github.com/clustersystems/commission-tracker/internal/zoho"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Reports     commissiondomain.ReportService
	Credentials credentialdomain.Service
	Scheduler   *scheduler.Scheduler
	Zoho        *zoho.Client
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	reports     commissiondomain.ReportService
	credentials credentialdomain.Service
	scheduler   *scheduler.Scheduler
	zoho        *zoho.Client
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		reports:     p.Reports,
		credentials: p.Credentials,
		scheduler:   p.Scheduler,
		zoho:        p.Zoho,
	}
}

// RegisterRoutes mounts the API. The auth callback stays outside the bearer
// guard: the browser arrives there without a token.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/api/auth/callback", s.authCallback)

	api := s.engine.Group("/api", auth.Middleware(s.cfg.AuthJWTSecret))
	{
		api.GET("/commissions", s.getCommissions)
		api.GET("/invoices", s.getInvoices)
		api.GET("/invoices/stats", s.getInvoiceStats)
		api.POST("/sync", s.postSync)
		api.GET("/user", s.getUser)
	}
}

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
