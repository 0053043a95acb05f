package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/adapters/signal"
	"github.com/avoronov/signalhub/internal/app"
	"github.com/avoronov/signalhub/internal/config"
	"github.com/avoronov/signalhub/internal/metrics"
	"github.com/avoronov/signalhub/internal/store"
	"github.com/avoronov/signalhub/pkg/auth"
)

// ClientTokenMiddleware assigns a stable per-browser token used as the
// subject of issued guest tokens.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, db *store.Postgres) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SignalhubSessions", sessionStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	jwt := auth.New(cfg.Secret)
	rooms := &RoomsAPI{DB: db, Orch: orch, JWT: jwt}
	ice := &ICEAPI{Config: cfg}

	api := r.Group("/api")
	api.POST("/auth/token", rooms.IssueToken)
	api.GET("/ice-servers", ice.List)

	api.GET("/rooms", rooms.List)
	api.GET("/rooms/:id", rooms.Get)
	api.POST("/rooms/:id/verify", rooms.VerifyPassword)
	api.POST("/rooms", BearerAuth(jwt), rooms.Create)
	api.DELETE("/rooms/:id", BearerAuth(jwt), rooms.Delete)

	ctrl := signal.NewSignalWSController(orch, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
