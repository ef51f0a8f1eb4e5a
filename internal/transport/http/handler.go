package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mpetrenko/stockroom/internal/apperrors"
	authdto "github.com/mpetrenko/stockroom/internal/auth/dto"
	"github.com/mpetrenko/stockroom/internal/auth/model"
	authservice "github.com/mpetrenko/stockroom/internal/auth/service"
	itemdto "github.com/mpetrenko/stockroom/internal/item/dto"
	itemservice "github.com/mpetrenko/stockroom/internal/item/service"
	"github.com/mpetrenko/stockroom/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	auth  authservice.AuthService
	items itemservice.ItemService
	log   *zap.Logger
}

func NewHandler(auth authservice.AuthService, items itemservice.ItemService, log *zap.Logger) *Handler {
	return &Handler{
		auth:  auth,
		items: items,
		log:   log,
	}
}

// RegisterRoutes wires the full HTTP surface. Logout stays outside the auth
// gate on purpose: it must succeed even with an expired access token.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	r.GET("/metrics", gin.WrapH(middleware.MetricsHandler()))

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)

	protected := r.Group("/", middleware.RequireAuth(h.auth))
	protected.GET("/me", h.me)
	protected.GET("/items", h.listItems)
	protected.POST("/items", h.createItem)
	protected.GET("/items/:id", h.getItem)
	protected.PUT("/items/:id", h.updateItem)
	protected.DELETE("/items/:id", h.deleteItem)
}

func (h *Handler) register(c *gin.Context) {
	var body authdto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := h.auth.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse(user, pair))
}

func (h *Handler) login(c *gin.Context) {
	var body authdto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := h.auth.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(user, pair))
}

func (h *Handler) refresh(c *gin.Context) {
	var body authdto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := h.auth.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(user, pair))
}

func (h *Handler) logout(c *gin.Context) {
	var body authdto.LogoutDTO
	// body is optional: a client may have nothing left but its access token
	_ = c.ShouldBindJSON(&body)
	if token, ok := bearerFromHeader(c); ok {
		body.AccessToken = token
	}

	if err := h.auth.Logout(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	user := c.MustGet(middleware.ContextUser).(model.User)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) createItem(c *gin.Context) {
	var body itemdto.ItemDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.items.Create(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) getItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var body itemdto.ItemDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.items.Update(c.Request.Context(), id, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case apperrors.IsInvalidArgument(err):
		resp := gin.H{"error": "validation failed"}
		if fields := apperrors.ViolatedFields(err); fields != nil {
			resp["fields"] = fields
		} else {
			resp["error"] = err.Error()
		}
		c.JSON(http.StatusBadRequest, resp)
	case apperrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case apperrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case apperrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{
			"error":  "validation failed",
			"fields": gin.H{"email": "email is already registered"},
		})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case apperrors.IsStoreUnavailable(err):
		h.log.Error("store failure", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type authResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	User         model.User `json:"user"`
}

func tokenResponse(user model.User, pair model.TokenPair) authResponse {
	return authResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(pair.AccessTTL.Seconds()),
		User:         user,
	}
}

func bearerFromHeader(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) <= len(prefix) {
		return "", false
	}
	if header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
