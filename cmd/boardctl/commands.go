package main

import (
	"strello/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	server       string
	board        string
	noOptimistic bool

	boardColor string
	before     string
	after      string
	column     string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "boardctl",
		Short:         "Edit a strello board from the command line",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", cfg.ServerURL, "board service URL")
	rootCmd.PersistentFlags().StringVar(&opts.board, "board", "", "board ID")
	rootCmd.PersistentFlags().BoolVar(&opts.noOptimistic, "no-optimistic", !cfg.OptimisticUpdates,
		"show only confirmed state instead of applying changes locally first")

	// --- Boards ---
	createBoardCmd := &cobra.Command{
		Use:   "create-board [title]",
		Short: "Create an empty board and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runCreateBoard,
	}
	createBoardCmd.Flags().StringVar(&opts.boardColor, "color", "", "board color")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Args:  cobra.NoArgs,
		RunE:  opts.runShow,
	}
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the board every time it changes",
		Args:  cobra.NoArgs,
		RunE:  opts.runWatch,
	}

	// --- Columns ---
	addColumnCmd := &cobra.Command{
		Use:   "add-column [title]",
		Short: "Append a column to the board",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runAddColumn,
	}
	renameColumnCmd := &cobra.Command{
		Use:   "rename-column [column-id] [title]",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(2),
		RunE:  opts.runRenameColumn,
	}
	moveColumnCmd := &cobra.Command{
		Use:   "move-column [column-id] [gap]",
		Short: "Drop a column into a gap; gap 0 is before the first column",
		Args:  cobra.ExactArgs(2),
		RunE:  opts.runMoveColumn,
	}
	deleteColumnCmd := &cobra.Command{
		Use:   "delete-column [column-id]",
		Short: "Delete a column and its cards",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runDeleteColumn,
	}

	// --- Cards ---
	addCardCmd := &cobra.Command{
		Use:   "add-card [column-id] [body]",
		Short: "Append a card to a column",
		Args:  cobra.ExactArgs(2),
		RunE:  opts.runAddCard,
	}
	editCardCmd := &cobra.Command{
		Use:   "edit-card [card-id] [body]",
		Short: "Replace the body of a card",
		Args:  cobra.ExactArgs(2),
		RunE:  opts.runEditCard,
	}
	moveCardCmd := &cobra.Command{
		Use:   "move-card [card-id]",
		Short: "Drop a card before or after another card, or at the end of a column",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runMoveCard,
	}
	moveCardCmd.Flags().StringVar(&opts.before, "before", "", "drop onto the top half of this card")
	moveCardCmd.Flags().StringVar(&opts.after, "after", "", "drop onto the bottom half of this card")
	moveCardCmd.Flags().StringVar(&opts.column, "column", "", "drop at the end of this column")
	moveCardCmd.MarkFlagsMutuallyExclusive("before", "after", "column")
	moveCardCmd.MarkFlagsOneRequired("before", "after", "column")

	deleteCardCmd := &cobra.Command{
		Use:   "delete-card [card-id]",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runDeleteCard,
	}

	rootCmd.AddCommand(createBoardCmd, showCmd, watchCmd)
	rootCmd.AddCommand(addColumnCmd, renameColumnCmd, moveColumnCmd, deleteColumnCmd)
	rootCmd.AddCommand(addCardCmd, editCardCmd, moveCardCmd, deleteCardCmd)
	return rootCmd
}
