// Package api contains all endpoints available
package api

import (
	"errors"
	"time"

	"docuvault/scan-api/db"
	"docuvault/scan-api/middleware"
	"docuvault/scan-api/ocr"
	"docuvault/scan-api/security"
	"docuvault/scan-api/service"
	"docuvault/scan-api/storage"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Argon   *security.ArgonHash
	Store   storage.Store
	OCR     *ocr.Registry
	Scanner *service.Scanner
	Docs    *service.DocStore
}

func NewRouter() (*API, error) {
	a := &API{
		Argon: security.New(),
		OCR:   ocr.NewRegistry(ocr.TesseractLoader()),
	}

	database, err := db.New()
	if err != nil {
		return nil, err
	}
	a.DB = database

	switch viper.GetString("storage.type") {
	case "memory":
		a.Store = storage.NewMemoryStore()
	default:
		s3, err := storage.NewS3Store()
		if err != nil {
			return nil, err
		}
		a.Store = s3
	}

	a.Scanner = service.NewScanner(a.DB, a.Store, a.OCR)
	a.Docs = service.NewDocStore(a.DB, a.Store)

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	a.registerRoutes()

	return a, nil
}

func (a *API) registerRoutes() {
	if a.Router == nil {
		panic(errors.New("router not initialized"))
	}

	rps := viper.GetInt("rate_limit.rps")
	if rps <= 0 {
		rps = 2
	}

	burst := viper.GetInt("rate_limit.burst")
	if burst <= 0 {
		burst = 5
	}

	auth := middleware.NewAuthMiddleware(a.DB)
	authLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rps,
		Burst:             burst,
	})
	maxUploadSize := viper.GetInt64("upload.max_size")

	// HEAD /heartbeat 		-> Used to check if the server is alive
	a.Router.HEAD("/heartbeat", a.Heartbeat)

	// HEAD /validate		-> Validates a bearer token
	a.Router.HEAD("/validate", auth, a.Validate)

	// POST /register 		-> Registers a new user
	a.Router.POST("/register", authLimiter, middleware.BodySizeLimiter(1<<20), a.UserRegister)

	// POST /login 			-> Logs in a user and returns a bearer token
	a.Router.POST("/login", authLimiter, middleware.BodySizeLimiter(1<<20), a.UserLogin)

	// POST /scan			-> Ingests a scanned image and stores the extracted text
	a.Router.POST("/scan", auth, middleware.BodySizeLimiter(maxUploadSize), a.DocScan)

	docs := a.Router.Group("/documents", auth)
	{
		// GET /documents		-> Returns the caller's documents
		docs.GET("", a.DocList)

		// GET /documents/:id/file	-> Serves the original scan of a document
		docs.GET("/:id/file", a.DocServe)

		// PUT /documents/:id		-> Updates title/content of a document
		docs.PUT("/:id", middleware.BodySizeLimiter(1<<20), a.DocEdit)

		// DELETE /documents/:id	-> Deletes a document and its stored scan
		docs.DELETE("/:id", a.DocDelete)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	l, _ := zapcore.ParseLevel(viper.GetString("app.log_level"))
	cfg.Level = zap.NewAtomicLevelAt(l)

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
