// main.go - SeoulFlix catalog server
package main

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"seoulflix/internal/config"
	"seoulflix/internal/database"
	"seoulflix/internal/handlers"
	"seoulflix/internal/middleware"
	"seoulflix/internal/services"
	"seoulflix/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	gin.SetMode(cfg.Environment)

	// Firebase backs both the document catalog and admin token checks.
	// Without it the admin routes are open, for local development only.
	var firebaseService *services.FirebaseService
	if cfg.FirebaseProjectID != "" {
		firebaseService, err = services.NewFirebaseService(cfg)
		if err != nil {
			log.Fatal("Failed to initialize Firebase service:", err)
		}
	}

	// Select the catalog backend
	var (
		catalog     services.Catalog
		db          *sqlx.DB
		healthCheck func() error
	)
	switch cfg.CatalogBackend {
	case config.BackendPostgres:
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer database.Close(db)

		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}

		catalog = services.NewPostgresCatalog(db)
		healthCheck = func() error { return database.Health(db) }

	case config.BackendFirestore:
		fsClient, err := firebaseService.Firestore(context.Background())
		if err != nil {
			log.Fatal("Failed to initialize Firestore client:", err)
		}
		defer fsClient.Close()

		catalog = services.NewFirestoreCatalog(fsClient)
		healthCheck = func() error { return nil }

	case config.BackendMemory:
		log.Println("⚠️  Using in-memory catalog; data is not persisted")
		catalog = services.NewMemoryCatalog()
		healthCheck = func() error { return nil }
	}

	// Handlers
	dramaHandler := handlers.NewDramaHandler(catalog)
	episodeHandler := handlers.NewEpisodeHandler(catalog)
	interactionHandler := handlers.NewInteractionHandler(catalog)

	var uploadHandler *handlers.UploadHandler
	if cfg.R2Config.Enabled() {
		r2Client, err := storage.NewR2Client(cfg.R2Config)
		if err != nil {
			log.Fatal("Failed to initialize R2 client:", err)
		}
		uploadHandler = handlers.NewUploadHandler(services.NewUploadService(r2Client))
	}

	// Admin mutations require a Firebase token when Firebase is configured
	adminGuard := func(c *gin.Context) { c.Next() }
	if firebaseService != nil {
		adminGuard = middleware.FirebaseAuth(firebaseService)
	}

	router := setupRouter(cfg)

	// Health check
	router.GET("/api/health", func(c *gin.Context) {
		if err := healthCheck(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	setupRoutes(router, adminGuard, dramaHandler, episodeHandler, interactionHandler, uploadHandler)

	log.Printf("🚀 SeoulFlix catalog server starting on port %s", cfg.Port)
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("💾 Catalog backend: %s", cfg.CatalogBackend)
	if firebaseService != nil {
		log.Printf("🔥 Firebase admin auth enabled")
	}
	if uploadHandler != nil {
		log.Printf("☁️  R2 thumbnail uploads enabled")
	}

	log.Fatal(router.Run(":" + cfg.Port))
}

func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// SSE streams must not pass through the gzip writer
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/comments/stream$`})))

	rateLimiter := NewRateLimiter()
	router.Use(createRateLimitMiddleware(rateLimiter))

	router.Use(middleware.RequestID())

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			"Cache-Control", "If-None-Match", "If-Modified-Since",
		},
		ExposeHeaders: []string{
			"Content-Length", "Cache-Control", "Last-Modified", "ETag",
			middleware.RequestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Next()
	})

	// Known paths answer unsupported verbs with 405 and an Allow header
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		if allowed := allowedMethods(router.Routes(), c.Request.URL.Path); len(allowed) > 0 {
			c.Header("Allow", strings.Join(allowed, ", "))
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	})

	return router
}

func setupRoutes(
	router *gin.Engine,
	adminGuard gin.HandlerFunc,
	dramaHandler *handlers.DramaHandler,
	episodeHandler *handlers.EpisodeHandler,
	interactionHandler *handlers.InteractionHandler,
	uploadHandler *handlers.UploadHandler,
) {
	api := router.Group("/api")

	// ===============================
	// PUBLIC CATALOG ROUTES
	// ===============================
	api.GET("/dramas", dramaHandler.GetDramas)
	api.GET("/dramas/:id", dramaHandler.GetDrama)
	api.GET("/search", dramaHandler.SearchDramas)

	api.GET("/dramas/:id/episodes", episodeHandler.GetEpisodes)

	api.GET("/dramas/:id/likes", interactionHandler.GetLikes)
	api.POST("/dramas/:id/like", interactionHandler.LikeDrama)

	api.GET("/dramas/:id/comments", interactionHandler.GetComments)
	api.POST("/dramas/:id/comments", interactionHandler.AddComment)
	api.GET("/dramas/:id/comments/stream", interactionHandler.StreamComments)

	// ===============================
	// ADMIN ROUTES
	// ===============================
	admin := api.Group("")
	admin.Use(adminGuard)
	{
		admin.POST("/dramas", dramaHandler.CreateDrama)
		admin.PUT("/dramas/:id", dramaHandler.UpdateDrama)
		admin.DELETE("/dramas/:id", dramaHandler.DeleteDrama)

		admin.POST("/dramas/:id/episodes", episodeHandler.CreateEpisode)
		admin.PUT("/dramas/:id/episodes/:episodeId", episodeHandler.UpdateEpisode)
		admin.DELETE("/dramas/:id/episodes/:episodeId", episodeHandler.DeleteEpisode)

		if uploadHandler != nil {
			admin.POST("/admin/upload", uploadHandler.UploadThumbnail)
		}
	}
}

// allowedMethods lists the verbs registered for routes matching the path.
func allowedMethods(routes gin.RoutesInfo, path string) []string {
	var methods []string
	for _, route := range routes {
		if pathMatches(route.Path, path) {
			methods = append(methods, route.Method)
		}
	}
	sort.Strings(methods)
	return methods
}

func pathMatches(pattern, path string) bool {
	p := strings.Split(strings.Trim(pattern, "/"), "/")
	s := strings.Split(strings.Trim(path, "/"), "/")
	if len(p) != len(s) {
		return false
	}
	for i := range p {
		if strings.HasPrefix(p[i], ":") || strings.HasPrefix(p[i], "*") {
			continue
		}
		if p[i] != s[i] {
			return false
		}
	}
	return true
}

// RateLimiter tracks request counts per client IP.
type RateLimiter struct {
	visitors map[string]*Visitor
	mutex    sync.RWMutex
}

type Visitor struct {
	requests int
	lastSeen time.Time
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
	}
	go rl.cleanupRoutine()
	return rl
}

func (rl *RateLimiter) Allow(ip string, limit int, window time.Duration) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	visitor, exists := rl.visitors[ip]
	now := time.Now()

	if !exists || now.Sub(visitor.lastSeen) > window {
		rl.visitors[ip] = &Visitor{
			requests: 1,
			lastSeen: now,
		}
		return true
	}

	if visitor.requests >= limit {
		return false
	}

	visitor.requests++
	visitor.lastSeen = now
	return true
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, visitor := range rl.visitors {
		if visitor.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func createRateLimitMiddleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Comment streams hold a connection open; they are not rate limited
		if strings.HasSuffix(c.Request.URL.Path, "/comments/stream") {
			c.Next()
			return
		}

		limit := 200
		if c.Request.Method != http.MethodGet {
			limit = 60
		}

		if !rateLimiter.Allow(c.ClientIP(), limit, time.Minute) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
