package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (c *Cli) runChats(ctx context.Context) error {
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	chats, err := c.apiClient.ListChats(ctx)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		c.io.Println("No authorized chats.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHAT ID\tFEMALE ID\tTITLE\tADDED BY\tADDED")
	for _, ch := range chats {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			ch.ChatID, ch.FemaleID, ch.Title, ch.AddedBy, ch.AddedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func (c *Cli) runSecret(ctx context.Context) error {
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.IssueChatSecret(ctx)
	if err != nil {
		return err
	}
	c.io.Println("✓ Send this in the group to authorize it:")
	c.io.Printf("/authorize %s\n", resp.Secret)
	return nil
}

func (c *Cli) runUnauthorize(ctx context.Context, args []string) error {
	chatID, rest, err := idArg(args, "chat id")
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("usage: ledgerctl unauthorize <chat-id>")
	}
	if _, err := c.authorize(ctx); err != nil {
		return err
	}

	if err := c.apiClient.UnauthorizeChat(ctx, chatID); err != nil {
		return err
	}
	c.io.Printf("✓ Chat %d unauthorized, its messages were removed from the index\n", chatID)
	return nil
}
