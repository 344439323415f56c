package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (c *Cli) runAdmins(ctx context.Context) error {
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	admins, err := c.apiClient.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		c.io.Println("No admins.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "USER ID\tUSERNAME\tADDED BY\tADDED")
	for _, a := range admins {
		added := "-"
		if a.AddedBy != 0 {
			added = fmt.Sprintf("%d", a.AddedBy)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			a.UserID, a.Username, added, a.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// runUserAction выполняет команду вида "<command> <user-id>" без тела запроса
func (c *Cli) runUserAction(ctx context.Context, command string, args []string, call func(context.Context, int64) error, done string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	if userID < 0 || len(rest) > 0 {
		return fmt.Errorf("usage: ledgerctl %s <user-id>", command)
	}
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	if err := call(ctx, userID); err != nil {
		return err
	}
	c.io.Printf("✓ User %d %s\n", userID, done)
	return nil
}

func (c *Cli) runAddAdmin(ctx context.Context, args []string) error {
	return c.runUserAction(ctx, "add-admin", args, c.apiClient.AddAdmin, "is now an admin")
}

func (c *Cli) runRemoveAdmin(ctx context.Context, args []string) error {
	return c.runUserAction(ctx, "remove-admin", args, c.apiClient.RemoveAdmin, "is no longer an admin")
}

func (c *Cli) runBlock(ctx context.Context, args []string) error {
	return c.runUserAction(ctx, "block", args, c.apiClient.Block, "blocked")
}

func (c *Cli) runUnblock(ctx context.Context, args []string) error {
	return c.runUserAction(ctx, "unblock", args, c.apiClient.Unblock, "unblocked")
}
