package handler_test

import (
	"net/http"
	"testing"

	"strello/internal/model"
	"strello/internal/orderkey"
	"strello/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCardHandler_Create(t *testing.T) {
	// Arrange
	rig := setupTest(t)
	id, boardID, columnID := uuid.New(), uuid.New(), uuid.New()
	rig.cards.On("Create", mock.Anything, &model.Card{
		ID:        id,
		BoardID:   boardID,
		ColumnID:  columnID,
		Order:     "a0",
		Body:      "write docs",
		UpdatedAt: 3,
	}).Return(true, nil)
	rig.notify.On("BoardChanged", mock.Anything, boardID).Return()

	// Act
	resp := rig.do("POST", "/cards", gin.H{
		"id":        id.String(),
		"board_id":  boardID.String(),
		"column_id": columnID.String(),
		"body":      "write docs",
		"order":     "a0",
		"timestamp": 3,
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	rig.assertExpectations(t)
}

func TestCardHandler_Create_EmptyBody(t *testing.T) {
	rig := setupTest(t)

	resp := rig.do("POST", "/cards", gin.H{
		"id":        uuid.New().String(),
		"board_id":  uuid.New().String(),
		"column_id": uuid.New().String(),
		"body":      "",
		"order":     "a0",
		"timestamp": 3,
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	rig.cards.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCardHandler_Create_ColumnMissing(t *testing.T) {
	rig := setupTest(t)
	rig.cards.On("Create", mock.Anything, mock.Anything).Return(false, repository.ErrColumnNotFound)

	resp := rig.do("POST", "/cards", gin.H{
		"id":        uuid.New().String(),
		"board_id":  uuid.New().String(),
		"column_id": uuid.New().String(),
		"body":      "ship",
		"order":     "a0",
		"timestamp": 3,
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	rig.notify.AssertNotCalled(t, "BoardChanged", mock.Anything, mock.Anything)
}

func TestCardHandler_EditBody(t *testing.T) {
	rig := setupTest(t)
	id, boardID := uuid.New(), uuid.New()
	rig.cards.On("EditBody", mock.Anything, id, "rewritten", int64(8)).
		Return(&model.Card{ID: id, BoardID: boardID, Body: "rewritten", UpdatedAt: 8}, nil)
	rig.notify.On("BoardChanged", mock.Anything, boardID).Return()

	resp := rig.do("PUT", "/cards/"+id.String()+"/body", gin.H{"body": "rewritten", "timestamp": 8})

	assert.Equal(t, http.StatusOK, resp.Code)
	rig.assertExpectations(t)
}

func TestCardHandler_EditBody_Stale(t *testing.T) {
	rig := setupTest(t)
	id := uuid.New()
	rig.cards.On("EditBody", mock.Anything, id, "older", int64(8)).Return(nil, repository.ErrStaleWrite)

	resp := rig.do("PUT", "/cards/"+id.String()+"/body", gin.H{"body": "older", "timestamp": 8})

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCardHandler_Move(t *testing.T) {
	// Arrange
	rig := setupTest(t)
	id, boardID, columnID := uuid.New(), uuid.New(), uuid.New()
	rig.cards.On("Move", mock.Anything, id, columnID, orderkey.Key("a0V"), int64(12)).
		Return(&model.Card{ID: id, BoardID: boardID, ColumnID: columnID, Order: "a0V", UpdatedAt: 12}, nil)
	rig.notify.On("BoardChanged", mock.Anything, boardID).Return()

	// Act
	resp := rig.do("PUT", "/cards/"+id.String()+"/move", gin.H{
		"column_id": columnID.String(),
		"order":     "a0V",
		"timestamp": 12,
	})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	rig.assertExpectations(t)
}

func TestCardHandler_Move_InvalidColumnID(t *testing.T) {
	rig := setupTest(t)

	resp := rig.do("PUT", "/cards/"+uuid.New().String()+"/move", gin.H{
		"column_id": "nope",
		"order":     "a0V",
		"timestamp": 12,
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	rig.cards.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCardHandler_Delete(t *testing.T) {
	rig := setupTest(t)
	id, boardID := uuid.New(), uuid.New()
	rig.cards.On("Delete", mock.Anything, id, int64(20)).Return(&model.Card{ID: id, BoardID: boardID}, nil)
	rig.notify.On("BoardChanged", mock.Anything, boardID).Return()

	resp := rig.do("DELETE", "/cards/"+id.String()+"?timestamp=20", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	rig.assertExpectations(t)
}

func TestCardHandler_Delete_MissingTimestamp(t *testing.T) {
	rig := setupTest(t)

	resp := rig.do("DELETE", "/cards/"+uuid.New().String(), nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
