package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"
)

func (c *Cli) runMint(ctx context.Context, args []string) error {
	fs := newFlagSet("mint")
	ttl := fs.Duration("ttl", 0, "invitation lifetime, server default when zero")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noExtraArgs(fs); err != nil {
		return err
	}
	if *ttl < 0 {
		return fmt.Errorf("ttl must not be negative")
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.Mint(ctx, *ttl)
	if err != nil {
		return err
	}

	c.io.Println("✓ Invitation minted. The token is shown only once:")
	c.io.Println(resp.Token)
	c.io.Printf("Hash: %s\n", resp.TokenHash)
	return nil
}

func (c *Cli) runInvitations(ctx context.Context) error {
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	list, err := c.apiClient.ListInvitations(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.io.Println("No invitations found.")
		c.io.Println("Use 'ledgerctl mint' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "HASH\tSTATUS\tCREATED\tEXPIRES\tUSED BY")
	for _, inv := range list {
		usedBy := "-"
		if inv.UsedBy != nil {
			usedBy = strconv.FormatInt(*inv.UsedBy, 10)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortHash(inv.TokenHash), inv.Status,
			inv.CreatedAt.Local().Format(time.DateTime),
			inv.ExpiresAt.Local().Format(time.DateTime),
			usedBy)
	}
	return w.Flush()
}

// runQuota: quota <admin-id> показывает квоту, quota <admin-id> <n> меняет ее
func (c *Cli) runQuota(ctx context.Context, args []string) error {
	adminID, rest, err := idArg(args, "admin id")
	if err != nil {
		return err
	}
	if len(rest) > 1 {
		return fmt.Errorf("usage: ledgerctl quota <admin-id> [quota]")
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	if len(rest) == 0 {
		q, err := c.apiClient.GetQuota(ctx, adminID)
		if err != nil {
			return err
		}
		c.io.Printf("Admin %d: %d of %d invitations used\n", q.AdminID, q.Used, q.Quota)
		return nil
	}

	quota, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil || quota < 0 {
		return fmt.Errorf("invalid quota: %q", rest[0])
	}
	q, err := c.apiClient.SetQuota(ctx, adminID, quota)
	if err != nil {
		return err
	}
	c.io.Printf("✓ Admin %d quota set to %d (%d used)\n", q.AdminID, q.Quota, q.Used)
	return nil
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
