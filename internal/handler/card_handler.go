package handler

import (
	"net/http"

	"strello/internal/api"
	"strello/internal/intent"
	"strello/internal/metrics"
	"strello/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CardHandler struct {
	cards  CardRepository
	notify Notifier
}

func NewCardHandler(cards CardRepository, notify Notifier) *CardHandler {
	return &CardHandler{cards: cards, notify: notify}
}

// Create creates a card with the id chosen by the client. Repeating the
// request is answered with 200 and changes nothing.
func (h *CardHandler) Create(c *gin.Context) {
	kind := string(intent.KindCreateCard)

	var req api.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	card := &model.Card{
		ID:        uuid.MustParse(req.ID),
		BoardID:   uuid.MustParse(req.BoardID),
		ColumnID:  uuid.MustParse(req.ColumnID),
		Order:     req.Order,
		Body:      req.Body,
		UpdatedAt: req.Timestamp,
	}

	created, err := h.cards.Create(c.Request.Context(), card)
	if err != nil {
		fail(c, kind, err, "create card")
		return
	}
	if !created {
		metrics.MutationsTotal.WithLabelValues(kind, metrics.ResultDuplicate).Inc()
		c.JSON(http.StatusOK, card)
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), card.BoardID)
	c.JSON(http.StatusCreated, card)
}

func (h *CardHandler) EditBody(c *gin.Context) {
	kind := string(intent.KindEditCard)
	cardID, ok := parseID(c, c.Param("id"), "card")
	if !ok {
		return
	}

	var req api.EditCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	card, err := h.cards.EditBody(c.Request.Context(), cardID, req.Body, req.Timestamp)
	if err != nil {
		fail(c, kind, err, "edit card")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), card.BoardID)
	c.JSON(http.StatusOK, card)
}

// Move puts a card into a column at the given order. The column may be the
// card's current one.
func (h *CardHandler) Move(c *gin.Context) {
	kind := string(intent.KindMoveCard)
	cardID, ok := parseID(c, c.Param("id"), "card")
	if !ok {
		return
	}

	var req api.MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	card, err := h.cards.Move(c.Request.Context(), cardID, uuid.MustParse(req.ColumnID), req.Order, req.Timestamp)
	if err != nil {
		fail(c, kind, err, "move card")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), card.BoardID)
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) Delete(c *gin.Context) {
	kind := string(intent.KindDeleteCard)
	cardID, ok := parseID(c, c.Param("id"), "card")
	if !ok {
		return
	}

	var q api.DeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	card, err := h.cards.Delete(c.Request.Context(), cardID, q.Timestamp)
	if err != nil {
		fail(c, kind, err, "delete card")
		return
	}

	applied(kind)
	h.notify.BoardChanged(c.Request.Context(), card.BoardID)
	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}
