package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Identity e' la parte del servizio identita' usata dal layer HTTP.
type Identity interface {
	SignUp(ctx context.Context, cred identity.Credentials) (identity.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error)
	GetUser(ctx context.Context, token string) (identity.User, error)
	SignOut(ctx context.Context, token string) error
}

// Handler espone il club service su HTTP e websocket.
type Handler struct {
	logger   *slog.Logger
	identity Identity
	clubs    *club.Service
	feed     feed.Subscriber
	delay    time.Duration
	upgrader websocket.Upgrader
}

// NewHandler crea l'handler; delay e' il ritardo del re-fetch delle view live.
func NewHandler(logger *slog.Logger, ident Identity, clubs *club.Service, sub feed.Subscriber, delay time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		identity: ident,
		clubs:    clubs,
		feed:     sub,
		delay:    delay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// il frontend gira su un'altra origine; l'accesso e' comunque protetto dal token
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router registra tutte le rotte.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/auth/signup", h.signUp)
	r.POST("/auth/signin", h.signIn)

	authed := r.Group("/", h.requireAuth())
	authed.POST("/auth/signout", h.signOut)
	authed.GET("/me", h.me)
	authed.GET("/clubs", h.listClubs)
	authed.POST("/clubs", h.createClub)
	authed.POST("/clubs/:id/join", h.joinClub)
	authed.DELETE("/clubs/:id/members/:memberId", h.removeMember)
	authed.POST("/clubs/:id/posts", h.createPost)
	authed.GET("/members", h.members)
	authed.GET("/dashboard", h.dashboard)
	authed.GET("/posts", h.posts)

	authed.GET("/ws/explore", h.exploreSocket)
	authed.GET("/ws/members", h.membersSocket)
	authed.GET("/ws/dashboard", h.dashboardSocket)

	return r
}

// requestLogger logga ogni richiesta con slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
