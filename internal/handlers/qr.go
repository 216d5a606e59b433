package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/eventgate/gatekeeper/internal/db"
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/token"
)

// GET /qr/{token}.png
func QR(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")
	tok, err := token.Decode(raw)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// ensure the token resolves before handing out an image
	if !tokenResolves(tok) {
		http.NotFound(w, r)
		return
	}

	// Encode the shareable URL so scanning opens the invitation directly
	url := "http://" + r.Host + "/view/" + token.Encode(tok)

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func tokenResolves(tok token.Token) bool {
	kind := token.Classify(tok)
	if kind.Kind == token.KindGuestBound {
		var guest models.Guest
		if err := db.Conn().First(&guest, uint(kind.GuestID)).Error; err != nil {
			return false
		}
		return guest.InviteNonce == tok.Nonce
	}
	var link models.ShareLink
	if err := db.Conn().Where("nonce = ?", tok.Nonce).Take(&link).Error; err != nil {
		return false
	}
	return uint64(link.EventID) == tok.SubjectID
}
