package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/services"
	"github.com/eventgate/gatekeeper/internal/token"
)

type checkinRequest struct {
	Token   string `json:"token"`
	EventID uint   `json:"event_id"`
}

type checkinRecord struct {
	ID          uint      `json:"id"`
	EventID     uint      `json:"event_id"`
	GuestID     *uint     `json:"guest_id,omitempty"`
	ShareLinkID *uint     `json:"share_link_id,omitempty"`
	Slot        int       `json:"slot"`
	Token       string    `json:"token"`
	ScannedBy   string    `json:"scanned_by"`
	CheckInTime time.Time `json:"check_in_time"`
	Status      string    `json:"status"`
}

func toCheckinRecord(rec models.CheckIn) checkinRecord {
	return checkinRecord{
		ID:          rec.ID,
		EventID:     rec.EventID,
		GuestID:     rec.GuestID,
		ShareLinkID: rec.ShareLinkID,
		Slot:        rec.Slot,
		Token:       rec.Token,
		ScannedBy:   rec.ScannedBy,
		CheckInTime: rec.CheckInTime,
		Status:      rec.Status,
	}
}

// POST /api/checkin
// Both QR-scanned and manually typed tokens land here; malformed text is
// rejected locally without touching the authority.
func CheckinSubmit(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body.")
		return
	}
	if req.EventID == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "event_id is required.")
		return
	}

	tok, err := token.Decode(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed", "Unreadable code.")
		return
	}

	out, err := services.Authorize(r.Context(), tok, OperatorFrom(r), time.Now(), req.EventID)
	if err != nil {
		log.Printf("checkin authorize: %v", err)
		writeError(w, http.StatusInternalServerError, "transient", "Temporary failure; retry the same code.")
		return
	}
	if !out.Accepted {
		writeJSON(w, rejectStatus(out.Reason), map[string]string{
			"status":  "rejected",
			"reason":  string(out.Reason),
			"message": out.Reason.Message(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"record": toCheckinRecord(*out.Record),
	})
}
