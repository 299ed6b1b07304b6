package api

import (
	"time"

	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/services"
	"github.com/shawgichan/lucid/internal/session"
	"github.com/shawgichan/lucid/internal/token"
	"github.com/shawgichan/lucid/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config        util.Config
	authService   *services.AuthService
	searchService *services.SearchService
	controller    *session.Controller
	sessions      *session.Registry
	tokenMaker    token.Maker
	logger        *applogger.AppLogger
	Router        *gin.Engine
}

func NewServer(
	config util.Config,
	authService *services.AuthService,
	searchService *services.SearchService,
	controller *session.Controller,
	sessions *session.Registry,
	tokenMaker token.Maker,
	logger *applogger.AppLogger,
) *Server {
	server := &Server{
		config:        config,
		authService:   authService,
		searchService: searchService,
		controller:    controller,
		sessions:      sessions,
		tokenMaker:    tokenMaker,
		logger:        logger,
	}

	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(CORSMiddleware())

	server.Router = router
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	router := s.Router

	router.GET("/health", s.healthCheckHandler)

	v1 := router.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", s.registerUser)
		authRoutes.POST("/login", s.loginUser)
	}

	// Everything below needs a valid token and a live session.
	authRequired := v1.Group("/").Use(authMiddleware(s.tokenMaker), sessionMiddleware(s.sessions))
	{
		authRequired.POST("/auth/logout", s.logoutUser)

		authRequired.GET("/session", s.getSession)
		authRequired.POST("/session/actions", s.dispatchAction)

		authRequired.GET("/history", s.listHistory)
		authRequired.GET("/bookmarks", s.listBookmarks)
		authRequired.PUT("/credential", s.storeCredential)
	}
}

// CORSMiddleware sets up Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func (s *Server) healthCheckHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
