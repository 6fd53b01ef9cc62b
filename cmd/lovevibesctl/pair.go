package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

func pairCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "pair [user-a] [user-b]",
		Short: "Show both swipe directions and the match count for two users",
		Long: `Show the latest swipe in each direction between two users and how many
match rows exist for the pair. More than one match row means the uniqueness
guarantee was broken.

Examples:
  lovevibesctl pair u1 u2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			pool, err := pgrepo.NewPool(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			swipes := pgrepo.NewSwipeRepo(pool)
			forward, err := lookupSwipe(cmd.Context(), swipes, args[0], args[1])
			if err != nil {
				return err
			}
			backward, err := lookupSwipe(cmd.Context(), swipes, args[1], args[0])
			if err != nil {
				return err
			}
			matches, err := pgrepo.NewMatchRepo(pool).CountForPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return writePairStatus(cmd.OutOrStdout(), args[0], args[1], forward, backward, matches)
		},
	}
}

func lookupSwipe(ctx context.Context, swipes *pgrepo.SwipeRepo, actorID, targetID string) (*pgrepo.SwipeRecord, error) {
	rec, err := swipes.Get(ctx, actorID, targetID)
	if errors.Is(err, pgrepo.ErrSwipeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func writePairStatus(w io.Writer, userA, userB string, forward, backward *pgrepo.SwipeRecord, matches int) error {
	line := func(actor, target string, rec *pgrepo.SwipeRecord) string {
		if rec == nil {
			return fmt.Sprintf("%s -> %s\tnone\n", actor, target)
		}
		return fmt.Sprintf("%s -> %s\t%s\t%s\n", actor, target, rec.Action, rec.SwipedAt.UTC().Format(time.RFC3339))
	}

	_, err := fmt.Fprint(w,
		line(userA, userB, forward),
		line(userB, userA, backward),
		fmt.Sprintf("matches\t%d\n", matches),
	)
	return err
}
