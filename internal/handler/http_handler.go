package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Mkw68Mkw/fast-chat/internal/config"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/internal/service"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
	"github.com/Mkw68Mkw/fast-chat/pkg/middleware"
	"github.com/Mkw68Mkw/fast-chat/pkg/response"
)

// Handler handles the REST endpoints: accounts, chatrooms and history.
type Handler struct {
	accounts       service.AccountService
	rooms          service.RoomService
	history        service.HistoryService
	authMiddleware *middleware.AuthMiddleware
	roomCfg        config.RoomConfig
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	accounts service.AccountService,
	rooms service.RoomService,
	history service.HistoryService,
	authMiddleware *middleware.AuthMiddleware,
	roomCfg config.RoomConfig,
) *Handler {
	return &Handler{
		accounts:       accounts,
		rooms:          rooms,
		history:        history,
		authMiddleware: authMiddleware,
		roomCfg:        roomCfg,
	}
}

// RegisterRoutes registers all REST routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Signup)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
			auth.POST("/refresh", h.Refresh)
		}

		users := api.Group("/users")
		{
			users.GET("/me", h.authMiddleware.RequireAuth(), h.Me)
		}

		rooms := api.Group("/chatrooms")
		{
			rooms.GET("", h.ListRooms)
			rooms.GET("/:id", h.GetRoom)
			rooms.GET("/:id/messages", h.GetHistory)
			rooms.POST("", h.authMiddleware.RequireAuth(), h.CreateRoom)
		}
	}
}

// Signup registers a new user.
func (h *Handler) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.accounts.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			response.Conflict(c, "username already taken")
			return
		}
		l.Error().Err(err).Msg("failed to register user")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, resp)
}

// Login authenticates a user.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.accounts.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		l.Error().Err(err).Msg("failed to log in user")
		response.InternalError(c, "failed to log in")
		return
	}

	response.Success(c, resp)
}

// Logout revokes every outstanding token of the authenticated user.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.accounts.Logout(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to log out user")
		response.InternalError(c, "failed to log out")
		return
	}

	response.Success(c, gin.H{"message": "logged out"})
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.accounts.Refresh(ctx, &req)
	if err != nil {
		response.Unauthorized(c, "invalid refresh token")
		return
	}

	response.Success(c, resp)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	profile, err := h.accounts.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to get profile")
		return
	}

	response.Success(c, profile)
}

// CreateRoom creates a new chatroom.
func (h *Handler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.rooms.CreateRoom(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			response.Conflict(c, "chatroom already exists")
			return
		}
		l.Error().Err(err).Msg("failed to create chatroom")
		response.InternalError(c, "failed to create chatroom")
		return
	}

	response.Created(c, room)
}

// GetRoom retrieves a chatroom by ID.
func (h *Handler) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")

	room, err := h.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			response.NotFound(c, "chatroom not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to get chatroom")
		response.InternalError(c, "failed to get chatroom")
		return
	}

	response.Success(c, room)
}

// ListRooms lists all chatrooms.
func (h *Handler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	rooms, err := h.rooms.ListRooms(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list chatrooms")
		response.InternalError(c, "failed to list chatrooms")
		return
	}

	response.Success(c, rooms)
}

// GetHistory returns a room's message history, ascending by timestamp.
func (h *Handler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")

	if _, err := h.rooms.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			response.NotFound(c, "chatroom not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to get chatroom")
		response.InternalError(c, "failed to get history")
		return
	}

	limit := h.roomCfg.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.roomCfg.HistoryMaximum {
		limit = h.roomCfg.HistoryMaximum
	}

	messages, err := h.history.GetHistory(ctx, roomID, limit)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to read history")
		response.InternalError(c, "failed to read history")
		return
	}

	response.Success(c, messages)
}
