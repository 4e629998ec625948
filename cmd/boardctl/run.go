package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"strello/internal/dnd"
	"strello/internal/model"
	"strello/internal/relay"
	"strello/internal/remote"
	"strello/internal/session"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errNoBoard = errors.New("--board is required")

// Drops are simulated on a unit square target.
var (
	unitBounds = dnd.Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}
	topHalf    = dnd.Point{X: 0.5, Y: 0.25}
	bottomHalf = dnd.Point{X: 0.5, Y: 0.75}
)

func (o *options) client() *remote.Client {
	return remote.New(o.server)
}

func (o *options) boardID() (uuid.UUID, error) {
	if o.board == "" {
		return uuid.Nil, errNoBoard
	}
	return parseID("board", o.board)
}

func parseID(what, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q: %w", what, raw, err)
	}
	return id, nil
}

// open creates a session on the board and loads it.
func (o *options) open(ctx context.Context) (*session.Session, *remote.Client, error) {
	boardID, err := o.boardID()
	if err != nil {
		return nil, nil, err
	}
	client := o.client()
	s := session.New(boardID, client, client,
		session.WithOptimistic(!o.noOptimistic),
		session.WithContext(ctx),
		session.WithLogger(log.WithField("component", "session")),
	)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("load board: %w", err)
	}
	return s, client, nil
}

// mutate runs fn against a fresh session, prints the board as soon as fn
// returns and again once every emitted intent has settled.
func (o *options) mutate(cmd *cobra.Command, fn func(s *session.Session) error) error {
	s, _, err := o.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		mu       sync.Mutex
		failures []relay.Completion
	)
	unsubscribe := s.Failures().Subscribe(func(c relay.Completion) {
		mu.Lock()
		failures = append(failures, c)
		mu.Unlock()
	})
	defer unsubscribe()

	if err := fn(s); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.Optimistic() {
		fmt.Fprintf(out, "== local (%d pending)\n", s.Pending())
		printBoard(out, s.Snapshot())
	}

	s.Wait()
	fmt.Fprintln(out, "== confirmed")
	printBoard(out, s.Snapshot())

	mu.Lock()
	defer mu.Unlock()
	if len(failures) > 0 {
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, fmt.Errorf("%s %s: %w", f.Intent.Kind(), f.Intent.Target(), f.Err))
		}
		return errors.Join(errs...)
	}
	return nil
}

func (o *options) runCreateBoard(cmd *cobra.Command, args []string) error {
	board, err := o.client().CreateBoard(cmd.Context(), args[0], o.boardColor)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), board.ID)
	return nil
}

func (o *options) runShow(cmd *cobra.Command, _ []string) error {
	boardID, err := o.boardID()
	if err != nil {
		return err
	}
	snap, err := o.client().Fetch(cmd.Context(), boardID)
	if err != nil {
		return err
	}
	printBoard(cmd.OutOrStdout(), snap)
	return nil
}

func (o *options) runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, client, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	printBoard(out, s.Snapshot())

	var mu sync.Mutex
	unsubscribe := s.Changes().Subscribe(func(snap model.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, "==")
		printBoard(out, snap)
	})
	defer unsubscribe()

	err = client.Listen(ctx, s.BoardID(), func() {
		if err := s.Refresh(ctx); err != nil {
			log.WithError(err).Warn("refresh failed")
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (o *options) runAddColumn(cmd *cobra.Command, args []string) error {
	return o.mutate(cmd, func(s *session.Session) error {
		id, err := s.CreateColumn(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "column %s\n", id)
		return nil
	})
}

func (o *options) runRenameColumn(cmd *cobra.Command, args []string) error {
	columnID, err := parseID("column", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		return s.RenameColumn(columnID, args[1])
	})
}

func (o *options) runMoveColumn(cmd *cobra.Command, args []string) error {
	columnID, err := parseID("column", args[0])
	if err != nil {
		return err
	}
	gap, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid gap %q: %w", args[1], err)
	}
	return o.mutate(cmd, func(s *session.Session) error {
		target, err := s.ColumnGapTarget(gap)
		if err != nil {
			return err
		}
		defer target.Close()
		drop(target, dnd.ColumnPayload(columnID), bottomHalf)
		return nil
	})
}

func (o *options) runDeleteColumn(cmd *cobra.Command, args []string) error {
	columnID, err := parseID("column", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		return s.DeleteColumn(columnID)
	})
}

func (o *options) runAddCard(cmd *cobra.Command, args []string) error {
	columnID, err := parseID("column", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		id, err := s.CreateCard(columnID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "card %s\n", id)
		return nil
	})
}

func (o *options) runEditCard(cmd *cobra.Command, args []string) error {
	cardID, err := parseID("card", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		return s.EditCard(cardID, args[1])
	})
}

func (o *options) runMoveCard(cmd *cobra.Command, args []string) error {
	cardID, err := parseID("card", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		var (
			target  *dnd.Target
			pointer = bottomHalf
			err     error
		)
		if o.column != "" {
			columnID, perr := parseID("column", o.column)
			if perr != nil {
				return perr
			}
			target, err = s.ColumnBodyTarget(columnID)
		} else {
			raw := o.after
			if o.before != "" {
				raw, pointer = o.before, topHalf
			}
			onto, perr := parseID("card", raw)
			if perr != nil {
				return perr
			}
			target, err = s.CardTarget(onto)
		}
		if err != nil {
			return err
		}
		defer target.Close()
		drop(target, dnd.CardPayload(cardID), pointer)
		return nil
	})
}

func (o *options) runDeleteCard(cmd *cobra.Command, args []string) error {
	cardID, err := parseID("card", args[0])
	if err != nil {
		return err
	}
	return o.mutate(cmd, func(s *session.Session) error {
		return s.DeleteCard(cardID)
	})
}

func drop(target *dnd.Target, payload dnd.Payload, pointer dnd.Point) {
	e := dnd.DragEvent{Payload: payload, Pointer: pointer, Bounds: unitBounds}
	target.Enter(e)
	target.Drop(e)
}

func printBoard(w io.Writer, snap model.Snapshot) {
	fmt.Fprintf(w, "%s  %s\n", snap.Board.Title, snap.Board.ID)
	for _, col := range snap.SortedColumns() {
		fmt.Fprintf(w, "  [%s]  %s\n", col.Title, col.ID)
		for _, card := range snap.CardsIn(col.ID) {
			fmt.Fprintf(w, "    - %s  %s\n", card.Body, card.ID)
		}
	}
}
