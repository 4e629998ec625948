package handler

import (
	"context"
	"errors"
	"net/http"

	"strello/internal/api"
	"strello/internal/metrics"
	"strello/internal/model"
	"strello/internal/orderkey"
	"strello/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type BoardRepository interface {
	Create(ctx context.Context, board *model.Board) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
}

type SnapshotReader interface {
	Snapshot(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error)
}

type ColumnRepository interface {
	Create(ctx context.Context, column *model.Column) (bool, error)
	LastOrder(ctx context.Context, boardID uuid.UUID) (*orderkey.Key, error)
	Rename(ctx context.Context, id uuid.UUID, title string, at int64) (*model.Column, error)
	Move(ctx context.Context, id uuid.UUID, order orderkey.Key, at int64) (*model.Column, error)
	Delete(ctx context.Context, id uuid.UUID, at int64) (*model.Column, error)
}

type CardRepository interface {
	Create(ctx context.Context, card *model.Card) (bool, error)
	EditBody(ctx context.Context, id uuid.UUID, body string, at int64) (*model.Card, error)
	Move(ctx context.Context, id, columnID uuid.UUID, order orderkey.Key, at int64) (*model.Card, error)
	Delete(ctx context.Context, id uuid.UUID, at int64) (*model.Card, error)
}

// Notifier is told about every committed change to a board.
type Notifier interface {
	BoardChanged(ctx context.Context, boardID uuid.UUID)
}

// Notifiers fans a change out to several notifiers in order.
type Notifiers []Notifier

func (n Notifiers) BoardChanged(ctx context.Context, boardID uuid.UUID) {
	for _, notifier := range n {
		notifier.BoardChanged(ctx, boardID)
	}
}

// EventStream serves a board's change feed on an upgraded connection.
type EventStream interface {
	Serve(w http.ResponseWriter, r *http.Request, boardID uuid.UUID) error
}

// RegisterValidations installs the custom binding tags on gin's validator.
func RegisterValidations() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return api.RegisterValidations(v)
	}
	return nil
}

func parseID(c *gin.Context, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps a repository error to a response and records the mutation
// outcome. kind is empty for reads.
func fail(c *gin.Context, kind string, err error, action string) {
	status, msg, result := http.StatusInternalServerError, "Failed to "+action, metrics.ResultError
	switch {
	case errors.Is(err, repository.ErrBoardNotFound):
		status, msg, result = http.StatusNotFound, "Board not found", metrics.ResultNotFound
	case errors.Is(err, repository.ErrColumnNotFound):
		status, msg, result = http.StatusNotFound, "Column not found", metrics.ResultNotFound
	case errors.Is(err, repository.ErrCardNotFound):
		status, msg, result = http.StatusNotFound, "Card not found", metrics.ResultNotFound
	case errors.Is(err, repository.ErrStaleWrite):
		status, msg, result = http.StatusConflict, "A newer write has already been applied", metrics.ResultStale
	default:
		log.WithError(err).WithField("route", c.FullPath()).Error(msg)
	}
	if kind != "" {
		metrics.MutationsTotal.WithLabelValues(kind, result).Inc()
	}
	c.JSON(status, api.ErrorResponse{Error: msg})
}

func applied(kind string) {
	metrics.MutationsTotal.WithLabelValues(kind, metrics.ResultApplied).Inc()
}
