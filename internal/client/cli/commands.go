package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду; args - аргументы после имени команды
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "hash-key":
		return c.runHashKey()
	case "mint":
		return c.runMint(ctx, args)
	case "invitations":
		return c.runInvitations(ctx)
	case "quota":
		return c.runQuota(ctx, args)
	case "grant":
		return c.runGrant(ctx, args)
	case "revoke":
		return c.runRevoke(ctx, args)
	case "ban":
		return c.runBan(ctx, args)
	case "unban":
		return c.runUnban(ctx, args)
	case "block":
		return c.runBlock(ctx, args)
	case "unblock":
		return c.runUnblock(ctx, args)
	case "admins":
		return c.runAdmins(ctx)
	case "add-admin":
		return c.runAddAdmin(ctx, args)
	case "remove-admin":
		return c.runRemoveAdmin(ctx, args)
	case "credits":
		return c.runCredits(ctx, args)
	case "topup":
		return c.runTopUp(ctx, args)
	case "chats":
		return c.runChats(ctx)
	case "secret":
		return c.runSecret(ctx)
	case "unauthorize":
		return c.runUnauthorize(ctx, args)
	case "audit":
		return c.runAudit(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", command)
	}
}
