package handler

import (
	"net/http"

	"strello/internal/api"
	"strello/internal/intent"
	"strello/internal/metrics"
	"strello/internal/model"
	"strello/internal/orderkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ColumnHandler struct {
	columns ColumnRepository
	notify  Notifier
}

func NewColumnHandler(columns ColumnRepository, notify Notifier) *ColumnHandler {
	return &ColumnHandler{columns: columns, notify: notify}
}

// Create creates a column with the id chosen by the client. Repeating the
// request is answered with 200 and changes nothing.
func (h *ColumnHandler) Create(c *gin.Context) {
	kind := string(intent.KindCreateColumn)

	var req api.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	column := &model.Column{
		ID:        uuid.MustParse(req.ID),
		BoardID:   uuid.MustParse(req.BoardID),
		Title:     req.Title,
		Order:     req.Order,
		UpdatedAt: req.Timestamp,
	}

	if column.Order == "" {
		last, err := h.columns.LastOrder(ctx, column.BoardID)
		if err != nil {
			fail(c, kind, err, "create column")
			return
		}
		if column.Order, err = orderkey.Between(last, nil); err != nil {
			fail(c, kind, err, "create column")
			return
		}
	}

	created, err := h.columns.Create(ctx, column)
	if err != nil {
		fail(c, kind, err, "create column")
		return
	}
	if !created {
		metrics.MutationsTotal.WithLabelValues(kind, metrics.ResultDuplicate).Inc()
		c.JSON(http.StatusOK, column)
		return
	}

	applied(kind)
	h.notify.BoardChanged(ctx, column.BoardID)
	c.JSON(http.StatusCreated, column)
}

func (h *ColumnHandler) Rename(c *gin.Context) {
	kind := string(intent.KindRenameColumn)
	columnID, ok := parseID(c, c.Param("id"), "column")
	if !ok {
		return
	}

	var req api.RenameColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	column, err := h.columns.Rename(c.Request.Context(), columnID, req.Title, req.Timestamp)
	if err != nil {
		fail(c, kind, err, "rename column")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), column.BoardID)
	c.JSON(http.StatusOK, column)
}

// Move puts a column at a new position on its board
func (h *ColumnHandler) Move(c *gin.Context) {
	kind := string(intent.KindMoveColumn)
	columnID, ok := parseID(c, c.Param("id"), "column")
	if !ok {
		return
	}

	var req api.MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	column, err := h.columns.Move(c.Request.Context(), columnID, req.Order, req.Timestamp)
	if err != nil {
		fail(c, kind, err, "move column")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), column.BoardID)
	c.JSON(http.StatusOK, column)
}

// Delete removes a column and every card in it
func (h *ColumnHandler) Delete(c *gin.Context) {
	kind := string(intent.KindDeleteColumn)
	columnID, ok := parseID(c, c.Param("id"), "column")
	if !ok {
		return
	}

	var q api.DeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	column, err := h.columns.Delete(c.Request.Context(), columnID, q.Timestamp)
	if err != nil {
		fail(c, kind, err, "delete column")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), column.BoardID)
	c.JSON(http.StatusOK, gin.H{"message": "Column deleted successfully"})
}
