// Package httpapi exposes the REST API over gin: registration, token
// issuance, image analysis and history.
package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options tunes the router.
type Options struct {
	GinMode            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	MaxUploadBytes     int64
}

// Deps are the services the handlers call into.
type Deps struct {
	Users    UserService
	Analysis AnalysisService
	History  HistoryService
	// Ready reports whether the classifier has a model loaded.
	Ready func() bool
	Log   logging.Logger
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}

// NewRouter wires middlewares and routes.
func NewRouter(deps Deps, opts Options) *gin.Engine {
	setGinMode(opts.GinMode)

	r := gin.New()
	r.MaxMultipartMemory = opts.MaxUploadBytes
	r.Use(requestID())
	r.Use(accessLog(deps.Log))
	r.Use(recovery(deps.Log))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 || (len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	ready := deps.Ready
	if ready == nil {
		ready = func() bool { return true }
	}
	h := &handlers{
		users:          deps.Users,
		analysis:       deps.Analysis,
		history:        deps.History,
		ready:          ready,
		maxUploadBytes: opts.MaxUploadBytes,
	}

	r.GET("/", h.root)

	public := r.Group("/")
	if opts.RateLimitPerMinute > 0 {
		public.Use(newIPRateLimiter(opts.RateLimitPerMinute).middleware())
	}
	public.POST("/register", h.register)
	public.POST("/token", h.token)

	protected := r.Group("/", authRequired(deps.Users))
	protected.POST("/analyze-image", h.analyzeImage)
	protected.GET("/history", h.listHistory)

	return r
}
