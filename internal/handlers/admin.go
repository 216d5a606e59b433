package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/eventgate/gatekeeper/internal/db"
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/services"
	"github.com/eventgate/gatekeeper/internal/token"
)

// Minimal organizer surface: enough to create events, issue tokens and
// inspect check-ins. Full event/guest management lives elsewhere.

// POST /api/events
func CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string     `json:"name"`
		Date            time.Time  `json:"date"`
		AllowPlusOne    bool       `json:"allow_plus_one"`
		CheckInOpensAt  *time.Time `json:"check_in_opens_at"`
		CheckInClosesAt *time.Time `json:"check_in_closes_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required.")
		return
	}
	event := models.Event{
		Name:            req.Name,
		Date:            req.Date,
		AllowPlusOne:    req.AllowPlusOne,
		CheckInOpensAt:  req.CheckInOpensAt,
		CheckInClosesAt: req.CheckInClosesAt,
	}
	if err := db.Conn().Create(&event).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": event.ID})
}

// POST /api/events/{id}/guests
// Creates the guest and issues their single-use invitation token.
func CreateGuest(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Name    string `json:"name"`
		PlusOne bool   `json:"plus_one"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required.")
		return
	}
	guest := models.Guest{
		EventID:     eventID,
		Name:        req.Name,
		PlusOne:     req.PlusOne,
		InviteNonce: token.NewNonce(),
	}
	if err := db.Conn().Create(&guest).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    guest.ID,
		"token": services.GuestToken(guest),
	})
}

// POST /api/events/{id}/links
// Issues a multi-use shareable token for the event.
func CreateShareLink(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		PlusOne   bool       `json:"plus_one"`
		MaxUses   int        `json:"max_uses"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxUses < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid body.")
		return
	}
	link := models.ShareLink{
		EventID:   eventID,
		Nonce:     token.NewNonce(),
		PlusOne:   req.PlusOne,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	}
	if err := db.Conn().Create(&link).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    link.ID,
		"token": services.LinkToken(link),
	})
}

// GET /api/events/{id}/checkins
func ListCheckins(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventFromPath(w, r)
	if !ok {
		return
	}
	var recs []models.CheckIn
	if err := db.Conn().Where("event_id = ?", eventID).
		Order("check_in_time DESC").Find(&recs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return
	}
	out := make([]checkinRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toCheckinRecord(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkins": out})
}

// POST /api/checkins/{id}/invalidate
// Status correction; the record stays on file but stops counting against
// the invitation's idempotency key.
func InvalidateCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid id.")
		return
	}
	rec, err := services.InvalidateCheckIn(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Check-in not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": toCheckinRecord(*rec)})
}

func eventFromPath(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid event id.")
		return 0, false
	}
	var event models.Event
	if err := db.Conn().First(&event, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Event not found.")
			return 0, false
		}
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure.")
		return 0, false
	}
	return event.ID, true
}
