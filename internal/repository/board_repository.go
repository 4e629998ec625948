package repository

import (
	"context"
	"errors"

	"strello/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

func (r *BoardRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	result := r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", id).Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Snapshot loads a board with all of its columns and cards, each ordered by
// position.
func (r *BoardRepository) Snapshot(ctx context.Context, id uuid.UUID) (model.Snapshot, error) {
	var snap model.Snapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&snap.Board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}
		if err := tx.Where("board_id = ?", id).Order("position").Order("id").Find(&snap.Columns).Error; err != nil {
			return err
		}
		return tx.Where("board_id = ?", id).Order("position").Order("id").Find(&snap.Cards).Error
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}
