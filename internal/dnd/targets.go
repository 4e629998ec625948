package dnd

import (
	"fmt"

	"strello/internal/model"
	"strello/internal/orderkey"
)

func orderOf(c *model.Card) *orderkey.Key {
	if c == nil {
		return nil
	}
	k := c.Order
	return &k
}

func columnOrderOf(c *model.Column) *orderkey.Key {
	if c == nil {
		return nil
	}
	k := c.Order
	return &k
}

// NewCardTarget is the drop zone of one card. prev and next are the cards
// directly above and below it in its column, nil at the edges. A card dropped
// on the top half lands between prev and card, on the bottom half between card
// and next.
func NewCardTarget(card model.Card, prev, next *model.Card, mover Mover) *Target {
	return newTarget("card:"+card.ID.String(), Vertical,
		func(p Payload) bool { return p.Has(TypeCard) },
		func(e DragEvent, placement Placement) error {
			id, ok := e.Payload.ID(TypeCard)
			if !ok || id == card.ID {
				return nil
			}
			cur := card.Order
			var lower, upper *orderkey.Key
			switch placement {
			case Before:
				if prev != nil && prev.ID == id {
					return nil
				}
				lower, upper = orderOf(prev), &cur
			case After:
				if next != nil && next.ID == id {
					return nil
				}
				lower, upper = &cur, orderOf(next)
			default:
				return nil
			}
			order, err := orderkey.Between(lower, upper)
			if err != nil {
				return fmt.Errorf("order between neighbours: %w", err)
			}
			return mover.MoveCard(id, card.ColumnID, order)
		})
}

// NewColumnBodyTarget is the card list of one column. cards must be the
// column's cards in order. A card from another column dropped here is
// appended after the last card.
func NewColumnBodyTarget(column model.Column, cards []model.Card, mover Mover) *Target {
	return newTarget("column-body:"+column.ID.String(), AxisNone,
		func(p Payload) bool { return p.Has(TypeCard) },
		func(e DragEvent, _ Placement) error {
			id, ok := e.Payload.ID(TypeCard)
			if !ok {
				return nil
			}
			var last *model.Card
			for i := range cards {
				if cards[i].ID == id {
					return nil
				}
				last = &cards[i]
			}
			order, err := orderkey.Between(orderOf(last), nil)
			if err != nil {
				return fmt.Errorf("order after last card: %w", err)
			}
			return mover.MoveCard(id, column.ID, order)
		})
}

// NewColumnGapTarget is the gap between two columns; left is nil before the
// first column and right is nil after the last one. It only accepts a payload
// that carries nothing but a column, so a dragged card is never taken for a
// column move.
func NewColumnGapTarget(left, right *model.Column, mover Mover) *Target {
	name := "column-gap"
	if left != nil {
		name += ":" + left.ID.String()
	}
	return newTarget(name, AxisNone,
		func(p Payload) bool { return p.Only(TypeColumn) },
		func(e DragEvent, _ Placement) error {
			id, ok := e.Payload.ID(TypeColumn)
			if !ok {
				return nil
			}
			if (left != nil && left.ID == id) || (right != nil && right.ID == id) {
				return nil
			}
			order, err := orderkey.Between(columnOrderOf(left), columnOrderOf(right))
			if err != nil {
				return fmt.Errorf("order between columns: %w", err)
			}
			return mover.MoveColumn(id, order)
		})
}

// NewColumnTarget is a whole column hovered by a column drag. The pointer's
// horizontal position against the column's midpoint places the dragged column
// before or after it.
func NewColumnTarget(column model.Column, left, right *model.Column, mover Mover) *Target {
	return newTarget("column:"+column.ID.String(), Horizontal,
		func(p Payload) bool { return p.Only(TypeColumn) },
		func(e DragEvent, placement Placement) error {
			id, ok := e.Payload.ID(TypeColumn)
			if !ok || id == column.ID {
				return nil
			}
			cur := column.Order
			var lower, upper *orderkey.Key
			switch placement {
			case Before:
				if left != nil && left.ID == id {
					return nil
				}
				lower, upper = columnOrderOf(left), &cur
			case After:
				if right != nil && right.ID == id {
					return nil
				}
				lower, upper = &cur, columnOrderOf(right)
			default:
				return nil
			}
			order, err := orderkey.Between(lower, upper)
			if err != nil {
				return fmt.Errorf("order between columns: %w", err)
			}
			return mover.MoveColumn(id, order)
		})
}
