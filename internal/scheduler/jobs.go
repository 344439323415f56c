package scheduler

import (
	"context"
	"time"

	"github.com/iudanet/chatgate/internal/config"
)

type invitationPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int, error)
}

type rateLimitPurger interface {
	PurgeStale(ctx context.Context, retention time.Duration) (int, error)
}

type secretPurger interface {
	PurgeSecrets(ctx context.Context, retention time.Duration) (int, error)
}

type auditFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// MaintenanceJobs builds the cleanup jobs from config
func MaintenanceJobs(cfg config.Cleanup, invites invitationPurger, limiter rateLimitPurger, chats secretPurger, audit auditFlusher) []Job {
	return []Job{
		{
			Name:     "purge_invitations",
			Schedule: cfg.Schedule,
			Run: func(ctx context.Context) (int, error) {
				return invites.PurgeExpired(ctx, cfg.InvitationRetention)
			},
		},
		{
			Name:     "purge_ratelimits",
			Schedule: cfg.Schedule,
			Run: func(ctx context.Context) (int, error) {
				return limiter.PurgeStale(ctx, cfg.RateLimitRetention)
			},
		},
		{
			Name:     "purge_chat_secrets",
			Schedule: cfg.Schedule,
			Run: func(ctx context.Context) (int, error) {
				return chats.PurgeSecrets(ctx, cfg.SecretRetention)
			},
		},
		{
			Name:     "flush_audit_spool",
			Schedule: cfg.SpoolFlush,
			Run:      audit.Flush,
		},
	}
}
