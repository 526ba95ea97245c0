package server

import (
	"net/http"
	"strings"
	"time"

	"anoa.com/warbler/internal/config"
	"anoa.com/warbler/internal/middleware"
	"anoa.com/warbler/internal/monitoring"
	"anoa.com/warbler/internal/session"
	"anoa.com/warbler/pkg/credential"
	"anoa.com/warbler/pkg/storage"

	followHttp "anoa.com/warbler/internal/modules/follow/delivery/http"
	followRepo "anoa.com/warbler/internal/modules/follow/repository"
	followService "anoa.com/warbler/internal/modules/follow/service"

	likeHttp "anoa.com/warbler/internal/modules/like/delivery/http"
	likeRepo "anoa.com/warbler/internal/modules/like/repository"
	likeService "anoa.com/warbler/internal/modules/like/service"

	messageHttp "anoa.com/warbler/internal/modules/message/delivery/http"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	messageService "anoa.com/warbler/internal/modules/message/service"

	notiHttp "anoa.com/warbler/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/warbler/internal/modules/notification/repository"
	notifService "anoa.com/warbler/internal/modules/notification/service"

	profileHttp "anoa.com/warbler/internal/modules/profile/delivery/http"
	profileService "anoa.com/warbler/internal/modules/profile/service"

	searchService "anoa.com/warbler/internal/modules/search/service"

	statHttp "anoa.com/warbler/internal/modules/stat/delivery/http"
	statService "anoa.com/warbler/internal/modules/stat/service"

	timelineHttp "anoa.com/warbler/internal/modules/timeline/delivery/http"
	timelineService "anoa.com/warbler/internal/modules/timeline/service"

	userHttp "anoa.com/warbler/internal/modules/user/delivery/http"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
	userService "anoa.com/warbler/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the external resources the server runs on. Redis, search
// and image storage are optional and may be nil.
type Dependencies struct {
	Config       *config.Config
	DB           *gorm.DB
	RedisClient  *redis.Client
	Search       searchService.SearchService
	ImageStorage storage.ImageStorage
}

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	db := deps.DB
	redisClient := deps.RedisClient

	hasher := credential.NewHasher(cfg.BcryptCost)
	sessions := session.NewManager(session.Options{
		Secret:  cfg.SecretKey,
		Name:    cfg.SessionName,
		CSRFTTL: cfg.CSRFTTL,
		Secure:  cfg.IsProduction(),
	})

	userRepo := userRepo.NewUserRepository(db)
	userSvc := userService.NewUserService(userRepo, hasher, deps.Search)
	userHandler := userHttp.NewUserHandler(userSvc, sessions)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, splitOrigins(cfg.AllowedOrigins))

	followRepo := followRepo.NewFollowRepository(db)
	followSvc := followService.NewFollowService(followRepo, userRepo, notificationSvc)
	followHandler := followHttp.NewFollowHandler(followSvc)

	messageRepo := messageRepo.NewMessageRepository(db)
	messageSvc := messageService.NewMessageService(messageRepo, redisClient, deps.Search, cfg.RateLimitMessage)

	likeRepo := likeRepo.NewLikeRepository(db)
	likeSvc := likeService.NewLikeService(likeRepo, messageRepo, userRepo, notificationSvc, redisClient)
	likeHandler := likeHttp.NewLikeHandler(likeSvc)

	messageHandler := messageHttp.NewMessageHandler(messageSvc, likeSvc)

	timelineSvc := timelineService.NewTimelineService(followRepo, messageRepo)
	timelineHandler := timelineHttp.NewTimelineHandler(timelineSvc, likeSvc)

	profileSvc := profileService.NewProfileService(userRepo, userSvc, hasher, followSvc, messageSvc, likeSvc, deps.ImageStorage, deps.Search)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	statHandler := statHttp.NewStatHandler(statService.NewStatService(userRepo, messageRepo, likeRepo))

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.PanicRecovery())
	router.Use(middleware.RequestLogger("/metrics", "/healthz"))
	router.Use(middleware.NoStore())
	router.Use(monitoring.Instrument())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(db))

	authMiddleware := middleware.NewAuthMiddleware(sessions, userRepo)

	api := router.Group("/api")
	api.Use(authMiddleware.LoadSession())

	// Public reads
	api.GET("/csrf", userHandler.CSRF)
	api.GET("/timeline", timelineHandler.GetTimeline)
	api.GET("/users", userHandler.ListUsers)
	api.GET("/users/:id", profileHandler.GetUserProfile)
	api.GET("/messages/:id", messageHandler.GetMessage)
	api.GET("/stats", statHandler.GetTotals)
	api.GET("/stats/trending", statHandler.GetTrendingMessages)

	// Anonymous forms still need a valid anti-forgery token
	forms := api.Group("")
	forms.Use(authMiddleware.RequireCSRF())
	{
		forms.POST("/signup", userHandler.Signup)
		forms.POST("/login", userHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth(), authMiddleware.RequireCSRF())
	{
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/users/profile", profileHandler.GetCurrentProfile)
		protected.PUT("/users/profile", profileHandler.UpdateProfile)
		protected.POST("/users/delete", userHandler.DeleteAccount)

		protected.GET("/users/:id/following", followHandler.Following)
		protected.GET("/users/:id/followers", followHandler.Followers)
		protected.GET("/users/:id/likes", likeHandler.LikedMessages)
		protected.POST("/users/follow/:id", followHandler.Follow)
		protected.POST("/users/stop-following/:id", followHandler.StopFollowing)

		protected.POST("/messages", messageHandler.CreateMessage)
		protected.POST("/messages/:id/delete", messageHandler.DeleteMessage)
		protected.POST("/messages/:id/like", likeHandler.Like)
		protected.POST("/messages/:id/unlike", likeHandler.Unlike)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func splitOrigins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := splitOrigins(allowedOrigins)
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", session.CSRFHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
