package api

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/match"
	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/peer"
	apperrors "github.com/jjweiting/hackthon001/pkg/errors"
	"github.com/jjweiting/hackthon001/pkg/response"
)

// Controller is the part of a peer the control API drives.
type Controller interface {
	State(ctx context.Context) (peer.State, error)
	Events(ctx context.Context, since uint64) ([]match.Event, error)
	Arena(ctx context.Context) (*arena.MapConfig, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, opts model.RoomOptions) (*model.Room, error)
	JoinRoom(ctx context.Context, roomID string) (*model.Room, error)
	StartGame(ctx context.Context) error
	StartMatch(ctx context.Context) error
	LeaveMatch(ctx context.Context) error
	PlayAgain(ctx context.Context) error
	Fire(ctx context.Context, targetID string) (match.Shot, error)
	Pickup(ctx context.Context, boxName string) error
	Move(ctx context.Context, pos model.Vec3, rot model.Quat) error
}

var _ Controller = (*peer.Peer)(nil)

type Handler struct {
	ctrl   Controller
	logger *slog.Logger
}

func NewHandler(ctrl Controller) *Handler {
	return &Handler{
		ctrl:   ctrl,
		logger: slog.Default().With("component", "api"),
	}
}

type FireRequest struct {
	Target string `json:"target"`
}

type PickupRequest struct {
	Box string `json:"box" binding:"required"`
}

type MoveRequest struct {
	Position model.Vec3 `json:"position"`
	Rotation model.Quat `json:"rotation"`
}

func (h *Handler) fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Code == apperrors.CodeServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	} else {
		h.logger.Debug("Request refused", "path", c.FullPath(), "code", appErr.Code, "error", err)
	}
	response.ErrorFromAppError(c, appErr)
}

// GetState GET /api/v1/state
func (h *Handler) GetState(c *gin.Context) {
	state, err := h.ctrl.State(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, state)
}

// GetEvents GET /api/v1/events?since=
func (h *Handler) GetEvents(c *gin.Context) {
	var since uint64
	if raw := c.Query("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.ErrorWithMsg(c, response.CodeInvalidParams, "since must be a sequence number")
			return
		}
		since = n
	}

	events, err := h.ctrl.Events(c.Request.Context(), since)
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []match.Event{}
	}
	response.Success(c, gin.H{"list": events})
}

// GetArena GET /api/v1/arena
func (h *Handler) GetArena(c *gin.Context) {
	doc, err := h.ctrl.Arena(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, doc)
}

// ListRooms GET /api/v1/rooms
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.ctrl.ListRooms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	response.Success(c, gin.H{"list": rooms})
}

// CreateRoom POST /api/v1/rooms
func (h *Handler) CreateRoom(c *gin.Context) {
	var req model.RoomOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
			return
		}
	}

	room, err := h.ctrl.CreateRoom(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, room)
}

// JoinRoom POST /api/v1/rooms/:id/join
func (h *Handler) JoinRoom(c *gin.Context) {
	room, err := h.ctrl.JoinRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, room)
}

// StartGame POST /api/v1/game/start
func (h *Handler) StartGame(c *gin.Context) {
	h.run(c, h.ctrl.StartGame)
}

// StartMatch POST /api/v1/match/start
func (h *Handler) StartMatch(c *gin.Context) {
	h.run(c, h.ctrl.StartMatch)
}

// LeaveMatch POST /api/v1/match/leave
func (h *Handler) LeaveMatch(c *gin.Context) {
	h.run(c, h.ctrl.LeaveMatch)
}

// PlayAgain POST /api/v1/match/restart
func (h *Handler) PlayAgain(c *gin.Context) {
	h.run(c, h.ctrl.PlayAgain)
}

func (h *Handler) run(c *gin.Context, op func(context.Context) error) {
	if err := op(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Fire POST /api/v1/match/fire
func (h *Handler) Fire(c *gin.Context) {
	var req FireRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
			return
		}
	}

	shot, err := h.ctrl.Fire(c.Request.Context(), req.Target)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, shot)
}

// Pickup POST /api/v1/match/pickup
func (h *Handler) Pickup(c *gin.Context) {
	var req PickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}

	if err := h.ctrl.Pickup(c.Request.Context(), req.Box); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Move POST /api/v1/match/move
func (h *Handler) Move(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}
	if req.Rotation == (model.Quat{}) {
		req.Rotation.W = 1
	}

	if err := h.ctrl.Move(c.Request.Context(), req.Position, req.Rotation); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, nil)
}
