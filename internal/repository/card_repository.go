package repository

import (
	"context"
	"errors"

	"strello/internal/model"
	"strello/internal/orderkey"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts card unless a card with the same id exists and reports
// whether a row was inserted. The card's column must exist on the card's
// board.
func (r *CardRepository) Create(ctx context.Context, card *model.Card) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := columnOnBoard(tx, card.ColumnID, card.BoardID); err != nil {
			return err
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(card)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected > 0
		return nil
	})
	return created, err
}

// EditBody replaces the body of a card
func (r *CardRepository) EditBody(ctx context.Context, id uuid.UUID, body string, at int64) (*model.Card, error) {
	var card *model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if card, err = lockCard(tx, id, at); err != nil {
			return err
		}
		card.Body = body
		card.UpdatedAt = at
		return tx.Model(&model.Card{}).Where("id = ?", id).Updates(map[string]interface{}{
			"body":       body,
			"updated_at": at,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Move places a card in a column at the given order. Moving into a column of
// another board is treated like moving into a missing column.
func (r *CardRepository) Move(ctx context.Context, id, columnID uuid.UUID, order orderkey.Key, at int64) (*model.Card, error) {
	var card *model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if card, err = lockCard(tx, id, at); err != nil {
			return err
		}
		if err := columnOnBoard(tx, columnID, card.BoardID); err != nil {
			return err
		}
		card.ColumnID = columnID
		card.Order = order
		card.UpdatedAt = at
		return tx.Model(&model.Card{}).Where("id = ?", id).Updates(map[string]interface{}{
			"column_id":  columnID,
			"position":   string(order),
			"updated_at": at,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes a card and returns it
func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID, at int64) (*model.Card, error) {
	var card *model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if card, err = lockCard(tx, id, at); err != nil {
			return err
		}
		return tx.Delete(&model.Card{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func lockCard(tx *gorm.DB, id uuid.UUID, at int64) (*model.Card, error) {
	var card model.Card
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	if at < card.UpdatedAt {
		return nil, ErrStaleWrite
	}
	return &card, nil
}

func columnOnBoard(tx *gorm.DB, columnID, boardID uuid.UUID) error {
	var column model.Column
	if err := tx.Select("id", "board_id").Where("id = ?", columnID).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return err
	}
	if column.BoardID != boardID {
		return ErrColumnNotFound
	}
	return nil
}
