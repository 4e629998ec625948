package handler

import (
	"net/http"

	"strello/internal/api"
	"strello/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type BoardHandler struct {
	boards    BoardRepository
	snapshots SnapshotReader
	events    EventStream
	notify    Notifier
}

func NewBoardHandler(boards BoardRepository, snapshots SnapshotReader, events EventStream, notify Notifier) *BoardHandler {
	return &BoardHandler{
		boards:    boards,
		snapshots: snapshots,
		events:    events,
		notify:    notify,
	}
}

// Create creates an empty board
func (h *BoardHandler) Create(c *gin.Context) {
	var req api.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	board := &model.Board{
		ID:    uuid.New(),
		Title: req.Title,
		Color: req.Color,
	}
	if err := h.boards.Create(c.Request.Context(), board); err != nil {
		fail(c, "", err, "create board")
		return
	}

	c.JSON(http.StatusCreated, board)
}

// Get returns the board with all of its columns and cards
func (h *BoardHandler) Get(c *gin.Context) {
	boardID, ok := parseID(c, c.Param("id"), "board")
	if !ok {
		return
	}

	snap, err := h.snapshots.Snapshot(c.Request.Context(), boardID)
	if err != nil {
		fail(c, "", err, "retrieve board")
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *BoardHandler) UpdateTitle(c *gin.Context) {
	boardID, ok := parseID(c, c.Param("id"), "board")
	if !ok {
		return
	}

	var req api.UpdateBoardTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	if err := h.boards.UpdateTitle(c.Request.Context(), boardID, req.Title); err != nil {
		fail(c, "", err, "update board")
		return
	}
	h.notify.BoardChanged(c.Request.Context(), boardID)

	c.JSON(http.StatusOK, gin.H{"id": boardID, "title": req.Title})
}

// Events streams the board's invalidations over a websocket
func (h *BoardHandler) Events(c *gin.Context) {
	boardID, ok := parseID(c, c.Param("id"), "board")
	if !ok {
		return
	}

	if err := h.events.Serve(c.Writer, c.Request, boardID); err != nil {
		log.WithError(err).WithField("board_id", boardID).Debug("event stream not opened")
	}
}
