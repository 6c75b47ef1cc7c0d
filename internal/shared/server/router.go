package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "medreport-backend/internal/auth"
	"medreport-backend/internal/health"
	"medreport-backend/internal/reports"
	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/metrics"
	"medreport-backend/internal/shared/server/middleware"
	"medreport-backend/internal/shared/server/respond"
	"medreport-backend/internal/users"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Config         config.Config
	Codec          *auth.Codec
	UsersHandler   *users.Handler
	ReportsHandler *reports.Handler
	GoogleAuth     *googleauth.GoogleService
	Health         *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Codec, "/api/v1/auth/", "/api/v1/health", "/api/v1/metrics"),
	)

	api := r.Group("/api/v1")

	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	api.GET("/metrics", metrics.Handler())

	authGroup := api.Group("/auth")
	deps.UsersHandler.RegisterRoutes(authGroup)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	deps.ReportsHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
