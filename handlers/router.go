package handlers

import (
	"net/http"
	"strings"
	"time"

	"places/auth"
	"places/logging"
	"places/metrics"
	"places/storage"
	"places/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const imageCacheTime = 7 * 86400

// NewRouter builds the gin engine with every route and the shared middleware
func NewRouter(h *Handler, debug bool) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies([]string{})
	if h.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = h.MaxUploadBytes + 1<<20
	}
	router.Use(logging.RequestLogger())
	router.Use(metrics.Middleware())
	if !debug {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{storage.ImagesURLPrefix, "/metrics"})))
	}
	// Inside gzip, so a recovered panic is written before the compressed stream is closed
	router.Use(Recovery(h.Storage))
	if debug {
		router.Use(logging.ErrorBodyLogger)
	}
	corsConfig := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:    []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}
	router.Use(corsWithoutOrigin(corsConfig))
	router.Use(cors.New(corsConfig))
	router.Use(limitBody(h.MaxUploadBytes))
	router.Use(ErrorHandler(h.Storage))
	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(ErrRouteNotFound)
	})

	api := router.Group("/api", (&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler())
	// Places
	places := api.Group("/places")
	placesAuth := &auth.Router{Base: places, Tokens: h.Tokens}
	places.GET("/user/:userId", h.PlaceListByUser)
	places.GET("/:placeId", h.PlaceGet)
	placesAuth.POST("", h.PlaceCreate)
	placesAuth.PATCH("/:placeId", h.PlaceUpdate)
	placesAuth.DELETE("/:placeId", h.PlaceDelete)
	// Users
	users := api.Group("/users")
	users.GET("", h.UserList)
	users.POST("/signup", h.UserSignup)
	users.POST("/login", h.UserLogin)

	// Uploaded images
	images := router.Group(storage.ImagesURLPrefix, (&utils.CacheRouter{CacheTime: imageCacheTime, Public: true}).Handler())
	images.GET("/:filename", h.ServeImage)

	router.GET("/healthz", h.Health)
	router.GET("/metrics", metrics.Handler())
	return router
}

// corsWithoutOrigin sets the CORS headers on requests without an Origin header, which
// the cors middleware skips
func corsWithoutOrigin(cfg cors.Config) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowMethods, ",")
	headers := strings.Join(cfg.AllowHeaders, ",")
	return func(c *gin.Context) {
		if c.GetHeader("Origin") == "" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
		}
		c.Next()
	}
}

func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Repo.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
