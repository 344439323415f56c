package sqlite

import "github.com/iudanet/chatgate/internal/server/storage"

var (
	_ storage.Transactor         = (*Storage)(nil)
	_ storage.UserStorage        = (*Storage)(nil)
	_ storage.AllowedUserStorage = (*Storage)(nil)
	_ storage.RateLimitStorage   = (*Storage)(nil)
	_ storage.SearchLogStorage   = (*Storage)(nil)
	_ storage.InvitationStorage  = (*Storage)(nil)
	_ storage.QuotaStorage       = (*Storage)(nil)
	_ storage.ChatStorage        = (*Storage)(nil)
	_ storage.MessageStorage     = (*Storage)(nil)
	_ storage.AuditStorage       = (*Storage)(nil)
)
