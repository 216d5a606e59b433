package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/eventgate/gatekeeper/internal/db"
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/token"
)

type invitationVM struct {
	Kind            string `json:"kind"` // guest | link
	Event           string `json:"event"`
	Guest           string `json:"guest,omitempty"`
	PlusOneEligible bool   `json:"plus_one_eligible"`
	UsesRemaining   *int   `json:"uses_remaining,omitempty"` // nil when uncapped
}

// GET /view/{token}
// The shareable-URL entry point; it decodes through the same codec as the
// scanner, so both surfaces agree on the grammar.
func ViewInvitation(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")
	tok, err := token.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed", "Unreadable code.")
		return
	}

	kind := token.Classify(tok)
	if kind.Kind == token.KindGuestBound {
		viewGuest(w, tok, kind)
		return
	}
	viewLink(w, tok)
}

func viewGuest(w http.ResponseWriter, tok token.Token, kind token.InvitationKind) {
	var guest models.Guest
	err := db.Conn().Preload("Event").First(&guest, uint(kind.GuestID)).Error
	if err != nil || guest.InviteNonce != tok.Nonce {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
			return
		}
		writeError(w, http.StatusNotFound, "not_found", "Invitation not found.")
		return
	}
	writeJSON(w, http.StatusOK, invitationVM{
		Kind:            "guest",
		Event:           guest.Event.Name,
		Guest:           guest.Name,
		PlusOneEligible: token.PlusOneEligible(guest.PlusOne, false, guest.Event.AllowPlusOne),
	})
}

func viewLink(w http.ResponseWriter, tok token.Token) {
	var link models.ShareLink
	err := db.Conn().Preload("Event").Where("nonce = ?", tok.Nonce).Take(&link).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
			return
		}
		writeError(w, http.StatusNotFound, "not_found", "Invitation not found.")
		return
	}
	if uint64(link.EventID) != tok.SubjectID {
		writeError(w, http.StatusNotFound, "not_found", "Invitation not found.")
		return
	}

	vm := invitationVM{
		Kind:            "link",
		Event:           link.Event.Name,
		PlusOneEligible: token.PlusOneEligible(false, link.PlusOne, link.Event.AllowPlusOne),
	}
	if link.MaxUses > 0 {
		var used int64
		if err := db.Conn().Model(&models.CheckIn{}).
			Where("share_link_id = ? AND status = ?", link.ID, models.CheckInValid).
			Count(&used).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
			return
		}
		remaining := link.MaxUses - int(used)
		if remaining < 0 {
			remaining = 0
		}
		vm.UsesRemaining = &remaining
	}
	writeJSON(w, http.StatusOK, vm)
}
