package services

import (
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/token"
)

// GuestToken renders the invitation token for a guest. The same text is
// embedded in the guest's QR code and in the shareable /view/<token> URL.
func GuestToken(g models.Guest) string {
	return token.Encode(token.Token{
		SubjectID: uint64(g.ID),
		Nonce:     g.InviteNonce,
		Code:      token.PerGuestInvitation,
	})
}

// LinkToken renders the token for an organizer-generated share link.
func LinkToken(l models.ShareLink) string {
	code := token.GeneratedLinkNoPlusOne
	if l.PlusOne {
		code = token.GeneratedLinkWithPlusOne
	}
	return token.Encode(token.Token{
		SubjectID: uint64(l.EventID),
		Nonce:     l.Nonce,
		Code:      code,
	})
}
