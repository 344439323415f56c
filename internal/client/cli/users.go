package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apiv1 "github.com/iudanet/chatgate/pkg/api"
)

func (c *Cli) runGrant(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	fs := newFlagSet("grant")
	username := fs.String("username", "", "telegram username")
	credits := fs.Int64("credits", 0, "starting credits, server default when zero")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if err := noExtraArgs(fs); err != nil {
		return err
	}
	if *credits < 0 {
		return fmt.Errorf("credits must not be negative")
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	u, err := c.apiClient.Grant(ctx, userID, apiv1.GrantRequest{Username: *username, Credits: *credits})
	if err != nil {
		return err
	}
	c.io.Printf("✓ User %d authorized with %d credits\n", u.UserID, u.Credits)
	return nil
}

func (c *Cli) runRevoke(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("usage: ledgerctl revoke <user-id>")
	}
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	if err := c.apiClient.Revoke(ctx, userID); err != nil {
		return err
	}
	c.io.Printf("✓ User %d revoked\n", userID)
	return nil
}

func (c *Cli) runBan(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	fs := newFlagSet("ban")
	dur := fs.Duration("for", 0, "ban duration, permanent when zero")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if err := noExtraArgs(fs); err != nil {
		return err
	}
	if *dur < 0 {
		return fmt.Errorf("ban duration must not be negative")
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	req := apiv1.BanRequest{DurationSeconds: int64(*dur / time.Second)}
	if err := c.apiClient.Ban(ctx, userID, req); err != nil {
		return err
	}
	if *dur == 0 {
		c.io.Printf("✓ User %d banned permanently\n", userID)
	} else {
		c.io.Printf("✓ User %d banned until %s\n", userID, c.now().Add(*dur).Local().Format(time.DateTime))
	}
	return nil
}

func (c *Cli) runUnban(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("usage: ledgerctl unban <user-id>")
	}
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	if err := c.apiClient.Unban(ctx, userID); err != nil {
		return err
	}
	c.io.Printf("✓ User %d unbanned\n", userID)
	return nil
}

func (c *Cli) runCredits(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("usage: ledgerctl credits <user-id>")
	}
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.Credits(ctx, userID)
	if err != nil {
		return err
	}
	c.io.Printf("User %d balance: %d\n", resp.UserID, resp.Balance)
	return nil
}

func (c *Cli) runTopUp(ctx context.Context, args []string) error {
	userID, rest, err := idArg(args, "user id")
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: ledgerctl topup <user-id> <amount>")
	}
	amount, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount: %q", rest[0])
	}

	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.TopUp(ctx, userID, amount)
	if err != nil {
		return err
	}
	c.io.Printf("✓ User %d balance: %d\n", resp.UserID, resp.Balance)
	return nil
}
