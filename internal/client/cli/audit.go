package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/iudanet/chatgate/internal/client/storage"
	"github.com/iudanet/chatgate/internal/models"
)

func (c *Cli) runAudit(ctx context.Context, args []string) error {
	fs := newFlagSet("audit")
	actor := fs.Int64("actor", 0, "only entries of this actor")
	action := fs.String("action", "", "only entries with this action")
	since := fs.Duration("since", 0, "only entries newer than this")
	limit := fs.Int("limit", 50, "maximum number of entries")
	onlyNew := fs.Bool("new", false, "only entries not shown by a previous -new run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noExtraArgs(fs); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	filter := models.AuditFilter{ActorID: *actor, Action: *action, Limit: *limit}
	if *since > 0 {
		filter.Since = c.now().Add(-*since)
	}
	if *onlyNew {
		trail, err := c.store.GetTrail(ctx, c.serverURL)
		switch {
		case err == nil:
			last := time.Unix(trail.LastSeen, 0)
			if last.After(filter.Since) {
				filter.Since = last
			}
		case !errors.Is(err, storage.ErrTrailNotFound):
			return fmt.Errorf("failed to read audit trail: %w", err)
		}
	}

	entries, err := c.apiClient.Audit(ctx, filter)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		c.io.Println("No audit entries.")
	} else {
		w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TIME\tACTOR\tACTION\tTARGET\tDETAILS")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime), e.ActorID, e.Action, e.Target, e.Details)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if *onlyNew {
		// since на сервере включительный, поэтому сдвигаемся на секунду
		last := c.now().Unix()
		for _, e := range entries {
			if ts := e.CreatedAt.Unix() + 1; ts > last {
				last = ts
			}
		}
		if err := c.store.SaveTrail(ctx, &storage.ServerTrail{ServerURL: c.serverURL, LastSeen: last}); err != nil {
			return fmt.Errorf("failed to save audit trail: %w", err)
		}
	}
	return nil
}
