package remote

import (
	"context"

	"golang.org/x/sync/errgroup"

	"budgetrack/internal/core"
)

// LoadSnapshot reads every table in parallel. It satisfies store.Loader.
func (c *Client) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.Users, err = c.Users.GetAll(ctx); return })
	g.Go(func() (err error) { snap.Divisions, err = c.Divisions.GetAll(ctx); return })
	g.Go(func() (err error) { snap.Units, err = c.Units.GetAll(ctx); return })
	g.Go(func() (err error) { snap.Projects, err = c.Projects.GetAll(ctx); return })
	g.Go(func() (err error) { snap.BudgetEntries, err = c.BudgetEntries.GetAll(ctx); return })
	g.Go(func() (err error) { snap.BudgetCodes, err = c.BudgetCodes.GetAll(ctx); return })
	g.Go(func() (err error) { snap.Notifications, err = c.Notifications.GetAll(ctx); return })
	g.Go(func() (err error) { snap.Settings, err = c.Settings.Get(ctx); return })

	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	c.logger.InfoContext(ctx, "Remote snapshot loaded",
		"users", len(snap.Users),
		"projects", len(snap.Projects),
		"entries", len(snap.BudgetEntries),
		"notifications", len(snap.Notifications),
	)
	return snap, nil
}
