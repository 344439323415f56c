package models

import "time"

// InvitationStatus is derived at read time, it is not stored.
type InvitationStatus string

const (
	InvitationUnused  InvitationStatus = "unused"
	InvitationUsed    InvitationStatus = "used"
	InvitationExpired InvitationStatus = "expired"
)

// Invitation is a one-time token. Only the hash of the token is persisted.
type Invitation struct {
	CreatedAt  time.Time  `json:"created_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	UsedBy     *int64     `json:"used_by,omitempty"`
	TokenHash  string     `json:"token_hash"`
	CreatedBy  int64      `json:"created_by"`
	TTLSeconds int64      `json:"ttl_seconds"`
	IsUsed     bool       `json:"is_used"`
}

// ExpiresAt returns the moment after which the invitation can no longer be redeemed.
func (i *Invitation) ExpiresAt() time.Time {
	return i.CreatedAt.Add(time.Duration(i.TTLSeconds) * time.Second)
}

// IsExpired reports whether now is past the invitation TTL.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt())
}

// Status returns the derived status of the invitation at now.
func (i *Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.IsUsed:
		return InvitationUsed
	case i.IsExpired(now):
		return InvitationExpired
	default:
		return InvitationUnused
	}
}

// AdminInviteQuota holds per-admin mint counters. Used never exceeds Quota.
type AdminInviteQuota struct {
	AdminID int64 `json:"admin_id"`
	Quota   int64 `json:"quota"`
	Used    int64 `json:"used"`
}

// Remaining returns how many invitations the admin can still mint.
func (q AdminInviteQuota) Remaining() int64 {
	if q.Used >= q.Quota {
		return 0
	}
	return q.Quota - q.Used
}
