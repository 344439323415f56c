package models

import "time"

// Audit actions recorded by the ledger.
const (
	ActionMint              = "mint_invitation"
	ActionRedeem            = "redeem_invitation"
	ActionGrant             = "grant_user"
	ActionRevoke            = "revoke_user"
	ActionBan               = "ban_user"
	ActionAutoBan           = "auto_ban_user"
	ActionUnban             = "unban_user"
	ActionQuotaChange       = "set_quota"
	ActionAddAdmin          = "add_admin"
	ActionRemoveAdmin       = "remove_admin"
	ActionBlockUser         = "block_user"
	ActionUnblockUser       = "unblock_user"
	ActionReserveUsername   = "reserve_username"
	ActionAcceptReserved    = "accept_reserved_username"
	ActionIssueChatSecret   = "issue_chat_secret"
	ActionAuthorizeChat     = "authorize_chat"
	ActionAutoAuthorizeChat = "auto_authorize_chat_on_add"
	ActionUnauthorizeChat   = "unauthorize_chat"
	ActionSearch            = "search"
	ActionContribute        = "contribute"
	ActionReport            = "report_send"
)

// AuditEntry is an immutable record of a sensitive state transition.
type AuditEntry struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"` // uuid, used to dedupe spooled entries on replay
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Details   string    `json:"details"`
	ActorID   int64     `json:"actor_id"`
}

// AuditFilter narrows audit listings. Zero values mean "any".
type AuditFilter struct {
	Since   time.Time
	Action  string
	ActorID int64
	Limit   int
}
