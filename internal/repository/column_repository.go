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

type ColumnRepository struct {
	db *gorm.DB
}

func NewColumnRepository(db *gorm.DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

// Create inserts column unless a column with the same id exists. It reports
// whether a row was inserted; a repeated create is not an error.
func (r *ColumnRepository) Create(ctx context.Context, column *model.Column) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Select("id").Where("id = ?", column.BoardID).First(&board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(column)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected > 0
		return nil
	})
	return created, err
}

// LastOrder returns the greatest column order on a board, or nil when the
// board has no columns.
func (r *ColumnRepository) LastOrder(ctx context.Context, boardID uuid.UUID) (*orderkey.Key, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&model.Column{}).
		Where("board_id = ?", boardID).
		Order("position DESC").
		Limit(1).
		Pluck("position", &keys).Error
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return orderkey.Key(keys[0]).Ptr(), nil
}

func (r *ColumnRepository) Rename(ctx context.Context, id uuid.UUID, title string, at int64) (*model.Column, error) {
	return r.update(ctx, id, at, func(c *model.Column) map[string]interface{} {
		c.Title = title
		return map[string]interface{}{"title": title}
	})
}

func (r *ColumnRepository) Move(ctx context.Context, id uuid.UUID, order orderkey.Key, at int64) (*model.Column, error) {
	return r.update(ctx, id, at, func(c *model.Column) map[string]interface{} {
		c.Order = order
		return map[string]interface{}{"position": string(order)}
	})
}

// Delete removes a column together with its cards and returns the removed
// column.
func (r *ColumnRepository) Delete(ctx context.Context, id uuid.UUID, at int64) (*model.Column, error) {
	var column *model.Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		column, err = lockColumn(tx, id, at)
		if err != nil {
			return err
		}
		if err := tx.Where("column_id = ?", id).Delete(&model.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Column{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// update applies a change to a column if at is not older than the column's
// last accepted write.
func (r *ColumnRepository) update(ctx context.Context, id uuid.UUID, at int64, apply func(*model.Column) map[string]interface{}) (*model.Column, error) {
	var column *model.Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		column, err = lockColumn(tx, id, at)
		if err != nil {
			return err
		}
		fields := apply(column)
		fields["updated_at"] = at
		column.UpdatedAt = at
		return tx.Model(&model.Column{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

func lockColumn(tx *gorm.DB, id uuid.UUID, at int64) (*model.Column, error) {
	var column model.Column
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	if at < column.UpdatedAt {
		return nil, ErrStaleWrite
	}
	return &column, nil
}
