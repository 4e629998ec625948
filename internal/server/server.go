package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strello/internal/cache"
	"strello/internal/config"
	"strello/internal/database"
	"strello/internal/handler"
	"strello/internal/hub"
	"strello/internal/metrics"
	"strello/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Hub    *hub.Hub
	Config *config.Config
}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Board  *handler.BoardHandler
	Column *handler.ColumnHandler
	Card   *handler.CardHandler
}

func Init(cfg *config.Config) (*Server, error) {
	if err := database.Migrate(cfg.MigrateURL()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("Connected to database")

	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(ctx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, snapshots will be read from the database until it recovers")
		} else {
			log.WithField("addr", cfg.RedisAddr).Info("Connected to redis")
		}
		cancel()
	}

	if err := handler.RegisterValidations(); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}

	// Initialize repositories
	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	cardRepo := repository.NewCardRepository(db)

	snapshots := cache.New(boardRepo, rc, cfg.CacheTTL)
	events := hub.New()
	// The cache must move to the new version before subscribers refetch.
	notify := handler.Notifiers{snapshots, events}

	// Initialize handlers
	h := Handlers{
		Board:  handler.NewBoardHandler(boardRepo, snapshots, events, notify),
		Column: handler.NewColumnHandler(columnRepo, notify),
		Card:   handler.NewCardHandler(cardRepo, notify),
	}

	return &Server{
		Engine: NewEngine(h),
		DB:     db,
		Redis:  rc,
		Hub:    events,
		Config: cfg,
	}, nil
}

// NewEngine builds the gin engine with every route of the board service.
func NewEngine(h Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/metrics", metrics.Handler())

	// Board routes
	r.POST("/boards", h.Board.Create)
	r.GET("/boards/:id", h.Board.Get)
	r.PUT("/boards/:id/title", h.Board.UpdateTitle)
	r.GET("/boards/:id/events", h.Board.Events)

	// Column routes
	r.POST("/columns", h.Column.Create)
	r.PUT("/columns/:id/title", h.Column.Rename)
	r.PUT("/columns/:id/order", h.Column.Move)
	r.DELETE("/columns/:id", h.Column.Delete)

	// Card routes
	r.POST("/cards", h.Card.Create)
	r.PUT("/cards/:id/body", h.Card.EditBody)
	r.PUT("/cards/:id/move", h.Card.Move)
	r.DELETE("/cards/:id", h.Card.Delete)

	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Infof("Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Websocket connections are hijacked and not tracked by Shutdown.
	s.Hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %s", err)
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis client")
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited properly")
}
