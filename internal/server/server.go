package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/marketplace/internal/authorization"
	"github.com/smallbiznis/marketplace/internal/config"
	loyaltydomain "github.com/smallbiznis/marketplace/internal/loyalty/domain"
	"github.com/smallbiznis/marketplace/internal/observability"
	obsmiddleware "github.com/smallbiznis/marketplace/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/marketplace/internal/observability/metrics"
	obstracing "github.com/smallbiznis/marketplace/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/marketplace/internal/order/domain"
	"github.com/smallbiznis/marketplace/internal/providers/pdf"
	"github.com/smallbiznis/marketplace/internal/ratelimit"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
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

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	orderSvc   orderdomain.Service
	loyaltySvc loyaltydomain.Service
	userSvc    userdomain.Service
	authzSvc   authorization.Service
	receipts   pdf.Provider
	limiter    *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	OrderSvc   orderdomain.Service
	LoyaltySvc loyaltydomain.Service
	UserSvc    userdomain.Service
	AuthzSvc   authorization.Service
	Receipts   pdf.Provider
	Limiter    *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		orderSvc:   p.OrderSvc,
		loyaltySvc: p.LoyaltySvc,
		userSvc:    p.UserSvc,
		authzSvc:   p.AuthzSvc,
		receipts:   p.Receipts,
		limiter:    p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(CallerIdentity())

	api.GET("/users/me", s.GetCurrentUser)
	api.GET("/metadata/tiers", s.authorizeAction(authorization.ObjectTier, authorization.ActionTierView), s.ListTiers)

	orders := api.Group("/orders")
	{
		orders.POST("", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CheckoutRateLimit(), s.CreateOrder)
		orders.GET("", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
		orders.GET("/:id", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrder)
		orders.PATCH("/:id", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderUpdate), s.CheckoutRateLimit(), s.UpdateOrder)
		orders.DELETE("/:id", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderDelete), s.DeleteOrder)
		orders.POST("/:id/payment", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderPay), s.ConfirmOrderPayment)
		orders.GET("/:id/receipt", s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderReceipt), s.GetOrderReceipt)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
