package http

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"auth-broker/internal/domain"
	"auth-broker/internal/registry"
	"auth-broker/internal/service"
)

const (
	headerAppID     = "X-App-Id"
	headerAppSecret = "X-App-Secret"

	ctxAppID = "appID"
)

// Handler wires HTTP routes to the session manager. Every auth endpoint
// requires app credentials in headers, validated before any body parsing.
type Handler struct {
	sessions service.SessionService
	apps     *registry.Registry
	metrics  http.Handler
	logger   *logrus.Logger
}

func NewHandler(sessions service.SessionService, apps *registry.Registry, metricsHandler http.Handler, logger *logrus.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		apps:     apps,
		metrics:  metricsHandler,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	authed := router.Group("/", h.requireApp())
	{
		authed.POST("/signup", h.signup)
		authed.POST("/login", h.login)
		authed.POST("/logout", h.logout)
		authed.POST("/introspect", h.introspect)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type sessionResponse struct {
	UserID        int64    `json:"userId"`
	SessionID     string   `json:"sessionId"`
	Token         string   `json:"token"`
	AppID         string   `json:"appId"`
	TimingSeconds *float64 `json:"timingSeconds,omitempty"`
}

// apiError writes the error envelope used by the wire protocol:
// {"error": {"code": "...", "message": "..."}}.
func apiError(c *gin.Context, status int, code, message string, extra gin.H) {
	payload := gin.H{"code": code, "message": message}
	for k, v := range extra {
		payload[k] = v
	}
	c.AbortWithStatusJSON(status, gin.H{"error": payload})
}

// requireApp authenticates the calling app from headers. All four auth
// endpoints reject malformed app auth identically, regardless of endpoint.
func (h *Handler) requireApp() gin.HandlerFunc {
	return func(c *gin.Context) {
		appID := c.GetHeader(headerAppID)
		appSecret := c.GetHeader(headerAppSecret)

		if err := h.apps.Authenticate(appID, appSecret); err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingAppCredentials):
				apiError(c, http.StatusUnauthorized, "missing_app_auth",
					"Missing X-App-Id and/or X-App-Secret headers.", nil)
			case errors.Is(err, domain.ErrUnknownApp):
				apiError(c, http.StatusUnauthorized, "unknown_app", "Unknown appId.", nil)
			default:
				apiError(c, http.StatusUnauthorized, "invalid_app_secret",
					"Invalid appSecret for appId.", nil)
			}
			return
		}

		c.Set(ctxAppID, appID)
		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) signup(c *gin.Context) {
	appID := c.GetString(ctxAppID)

	var req credentialsRequest
	_ = c.ShouldBindJSON(&req) // a malformed body is treated as empty fields
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		apiError(c, http.StatusBadRequest, "invalid_input", "username and password are required.", nil)
		return
	}

	session, err := h.sessions.Signup(c.Request.Context(), appID, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			apiError(c, http.StatusBadRequest, "invalid_syntax",
				"Invalid username or password syntax.",
				gin.H{"hint": "username>=3 chars, password>=8 chars"})
		case errors.Is(err, domain.ErrUsernameTaken):
			apiError(c, http.StatusConflict, "username_exists",
				"Username already exists. Choose another.", nil)
		default:
			h.internalError(c, "signup", err)
		}
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		UserID:    session.UserID,
		SessionID: session.ID,
		Token:     session.Token,
		AppID:     session.AppID,
	})
}

func (h *Handler) login(c *gin.Context) {
	start := time.Now()
	appID := c.GetString(ctxAppID)

	var req credentialsRequest
	_ = c.ShouldBindJSON(&req)
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		apiError(c, http.StatusBadRequest, "missing_fields", "username and password both required.", nil)
		return
	}

	session, err := h.sessions.Login(c.Request.Context(), appID, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			apiError(c, http.StatusBadRequest, "missing_fields", "username and password both required.", nil)
		case errors.Is(err, domain.ErrAccountNotFound):
			apiError(c, http.StatusNotFound, "account_not_found", "Account not found.", nil)
		case errors.Is(err, domain.ErrInvalidCredentials):
			apiError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password.", nil)
		default:
			h.internalError(c, "login", err)
		}
		return
	}

	elapsed := roundSeconds(time.Since(start))
	c.JSON(http.StatusOK, sessionResponse{
		UserID:        session.UserID,
		SessionID:     session.ID,
		Token:         session.Token,
		AppID:         session.AppID,
		TimingSeconds: &elapsed,
	})
}

func (h *Handler) logout(c *gin.Context) {
	start := time.Now()
	appID := c.GetString(ctxAppID)

	var req sessionRequest
	_ = c.ShouldBindJSON(&req)
	req.SessionID = strings.TrimSpace(req.SessionID)

	if req.SessionID == "" {
		apiError(c, http.StatusBadRequest, "missing_session", "sessionId is required.", nil)
		return
	}

	alreadyRevoked, err := h.sessions.Logout(c.Request.Context(), appID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingSession):
			apiError(c, http.StatusBadRequest, "missing_session", "sessionId is required.", nil)
		case errors.Is(err, domain.ErrSessionNotFound):
			apiError(c, http.StatusUnauthorized, "unauthorized", "No session recognized for logout.", nil)
		case errors.Is(err, domain.ErrWrongApp):
			apiError(c, http.StatusForbidden, "wrong_app", "sessionId does not belong to this appId.", nil)
		default:
			h.internalError(c, "logout", err)
		}
		return
	}

	if alreadyRevoked {
		c.JSON(http.StatusOK, gin.H{"success": true, "alreadyRevoked": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "timingSeconds": roundSeconds(time.Since(start))})
}

// introspect never returns an error status for a bad, missing, foreign or
// revoked session; every negative case is an ordinary inactive answer.
func (h *Handler) introspect(c *gin.Context) {
	appID := c.GetString(ctxAppID)

	var req sessionRequest
	_ = c.ShouldBindJSON(&req)

	result := h.sessions.Introspect(c.Request.Context(), appID, req.SessionID)
	if !result.Active {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active": true,
		"userId": result.UserID,
		"appId":  result.AppID,
	})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.WithError(err).Errorf("%s failed", op)
	apiError(c, http.StatusInternalServerError, "internal_error", "Internal error.", nil)
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e6) / 1e6
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
		}).Info("request")
	}
}
