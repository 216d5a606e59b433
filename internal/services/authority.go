package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eventgate/gatekeeper/internal/db"
	"github.com/eventgate/gatekeeper/internal/events"
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/token"
)

// Identity is the operator performing a scan, supplied by the caller's
// session; this package only consumes it.
type Identity struct {
	ID   string
	Name string
}

func (i Identity) Display() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// RejectReason is a business rejection from the check-in authority. These
// are terminal for a detection event and are never retried automatically;
// transport/storage failures travel as a separate error return instead.
type RejectReason string

const (
	ReasonAlreadyUsed   RejectReason = "already_used"
	ReasonExpired       RejectReason = "expired"
	ReasonNotFound      RejectReason = "not_found"
	ReasonEventMismatch RejectReason = "event_mismatch"
)

var reasonText = map[RejectReason]string{
	ReasonAlreadyUsed:   "Already checked in.",
	ReasonExpired:       "Invitation is outside its check-in window.",
	ReasonNotFound:      "Invitation not found.",
	ReasonEventMismatch: "Token belongs to a different event.",
}

// Message returns the operator-facing text for a rejection.
func (r RejectReason) Message() string {
	if t, ok := reasonText[r]; ok {
		return t
	}
	return string(r)
}

// Outcome is the authority's verdict on one authorize call.
type Outcome struct {
	Accepted bool
	Record   *models.CheckIn
	Reason   RejectReason // set when !Accepted
}

func rejected(r RejectReason) Outcome {
	return Outcome{Reason: r}
}

// Authorize resolves a decoded token against the active event and, if it is
// redeemable, creates the check-in record. The uniqueness check and the
// insert run in one transaction so that concurrent calls for the same key
// admit exactly one record; the partial unique indexes in db.Init are the
// backstop if two transactions race past the pre-check.
//
// A non-nil error means a transient storage failure: the caller may retry
// the same token. Business rejections come back in the Outcome with no error.
func Authorize(ctx context.Context, tok token.Token, by Identity, at time.Time, activeEventID uint) (Outcome, error) {
	var out Outcome
	err := db.Conn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kind := token.Classify(tok)
		var txErr error
		if kind.Kind == token.KindGuestBound {
			out, txErr = authorizeGuest(tx, tok, kind, by, at, activeEventID)
		} else {
			out, txErr = authorizeLink(tx, tok, by, at, activeEventID)
		}
		return txErr
	})
	if err != nil {
		return Outcome{}, err
	}
	if out.Accepted && events.OnCheckIn != nil {
		events.OnCheckIn(*out.Record)
	}
	return out, nil
}

func authorizeGuest(tx *gorm.DB, tok token.Token, kind token.InvitationKind, by Identity, at time.Time, activeEventID uint) (Outcome, error) {
	var guest models.Guest
	if err := tx.First(&guest, uint(kind.GuestID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejected(ReasonNotFound), nil
		}
		return Outcome{}, err
	}
	// A token with the right guest id but the wrong nonce does not resolve.
	if guest.InviteNonce != tok.Nonce {
		return rejected(ReasonNotFound), nil
	}
	if guest.EventID != activeEventID {
		return rejected(ReasonEventMismatch), nil
	}

	event, reason, err := loadEventForCheckIn(tx, guest.EventID, at)
	if err != nil {
		return Outcome{}, err
	}
	if reason != "" {
		return rejected(reason), nil
	}

	var prior models.CheckIn
	err = tx.Where("event_id = ? AND guest_id = ? AND status = ?",
		event.ID, guest.ID, models.CheckInValid).Take(&prior).Error
	if err == nil {
		return rejected(ReasonAlreadyUsed), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Outcome{}, err
	}

	rec := models.CheckIn{
		EventID:     event.ID,
		GuestID:     &guest.ID,
		Token:       token.Encode(tok),
		ScannedBy:   by.Display(),
		CheckInTime: at,
		Status:      models.CheckInValid,
	}
	if err := tx.Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return rejected(ReasonAlreadyUsed), nil
		}
		return Outcome{}, err
	}
	return Outcome{Accepted: true, Record: &rec}, nil
}

func authorizeLink(tx *gorm.DB, tok token.Token, by Identity, at time.Time, activeEventID uint) (Outcome, error) {
	var link models.ShareLink
	if err := tx.Where("nonce = ?", tok.Nonce).Take(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejected(ReasonNotFound), nil
		}
		return Outcome{}, err
	}
	// The subject id in the token must agree with the link's own event.
	if uint64(link.EventID) != tok.SubjectID {
		return rejected(ReasonNotFound), nil
	}
	if link.EventID != activeEventID {
		return rejected(ReasonEventMismatch), nil
	}
	if link.ExpiresAt != nil && at.After(*link.ExpiresAt) {
		return rejected(ReasonExpired), nil
	}

	event, reason, err := loadEventForCheckIn(tx, link.EventID, at)
	if err != nil {
		return Outcome{}, err
	}
	if reason != "" {
		return rejected(reason), nil
	}

	// Cap bookkeeping is counting-by-query: the count of prior valid records
	// enforces the cap, and the (share_link_id, slot) unique index turns a
	// racing double-claim of the same slot into AlreadyUsed. The slot itself
	// is MAX(slot)+1, not the count: an invalidated record frees capacity
	// without its old slot ever being reissued, so the count can lag behind
	// the highest occupied slot.
	var used int64
	if err := tx.Model(&models.CheckIn{}).
		Where("share_link_id = ? AND status = ?", link.ID, models.CheckInValid).
		Count(&used).Error; err != nil {
		return Outcome{}, err
	}
	if link.MaxUses > 0 && used >= int64(link.MaxUses) {
		return rejected(ReasonAlreadyUsed), nil
	}
	var slot int
	if err := tx.Model(&models.CheckIn{}).
		Where("share_link_id = ? AND status = ?", link.ID, models.CheckInValid).
		Select("COALESCE(MAX(slot)+1, 0)").
		Scan(&slot).Error; err != nil {
		return Outcome{}, err
	}

	rec := models.CheckIn{
		EventID:     event.ID,
		ShareLinkID: &link.ID,
		Slot:        slot,
		Token:       token.Encode(tok),
		ScannedBy:   by.Display(),
		CheckInTime: at,
		Status:      models.CheckInValid,
	}
	if err := tx.Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return rejected(ReasonAlreadyUsed), nil
		}
		return Outcome{}, err
	}
	return Outcome{Accepted: true, Record: &rec}, nil
}

// loadEventForCheckIn fetches the event and applies its validity window.
// Scans outside the window reject as expired.
func loadEventForCheckIn(tx *gorm.DB, eventID uint, at time.Time) (models.Event, RejectReason, error) {
	var event models.Event
	if err := tx.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event, ReasonNotFound, nil
		}
		return event, "", err
	}
	if event.CheckInOpensAt != nil && at.Before(*event.CheckInOpensAt) {
		return event, ReasonExpired, nil
	}
	if event.CheckInClosesAt != nil && at.After(*event.CheckInClosesAt) {
		return event, ReasonExpired, nil
	}
	return event, "", nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}

// InvalidateCheckIn is the authority's status correction: a valid record is
// marked invalid, which also frees its idempotency slot. Records are never
// deleted.
func InvalidateCheckIn(ctx context.Context, id uint) (*models.CheckIn, error) {
	var rec models.CheckIn
	err := db.Conn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}
		if rec.Status == models.CheckInInvalid {
			return nil
		}
		rec.Status = models.CheckInInvalid
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
