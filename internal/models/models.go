package models

import "time"

type Event struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string
	Date         time.Time
	AllowPlusOne bool

	// Check-in validity window; nil means unbounded on that side.
	CheckInOpensAt  *time.Time
	CheckInClosesAt *time.Time
}

type Guest struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	EventID uint `gorm:"index"`
	Event   Event

	Name    string
	PlusOne bool

	// InviteNonce is baked into the guest's invitation token; a token whose
	// nonce does not match is treated as unresolvable.
	InviteNonce string `gorm:"uniqueIndex;not null"`
}

// ShareLink is an organizer-generated multi-use invitation link.
type ShareLink struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	EventID uint `gorm:"index"`
	Event   Event

	Nonce   string `gorm:"uniqueIndex;not null"`
	PlusOne bool

	// MaxUses caps the number of valid check-ins attributable to this link;
	// 0 means uncapped.
	MaxUses   int
	ExpiresAt *time.Time
}

// Check-in record status. Records are created "valid" and are never deleted;
// the only permitted mutation is a status correction by the authority.
const (
	CheckInValid   = "valid"
	CheckInInvalid = "invalid"
)

// CheckIn is the durable fact that an invitation was redeemed. Exactly one
// of GuestID / ShareLinkID is set. For share-link check-ins Slot is the
// zero-based sequence slot within the link's usage cap.
type CheckIn struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	EventID     uint `gorm:"index"`
	GuestID     *uint
	ShareLinkID *uint
	Slot        int

	Token       string
	ScannedBy   string
	CheckInTime time.Time
	Status      string // valid | invalid
}
