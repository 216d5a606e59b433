package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformed is returned by Decode for any input that does not match the
// token grammar. Malformed tokens are resolved locally and never reach the
// check-in authority.
var ErrMalformed = errors.New("malformed token")

// LinkCode is the short suffix that classifies a token. It encodes both the
// invitation kind and, for generated links, the plus-one default.
type LinkCode string

const (
	// PerGuestInvitation marks a token bound to exactly one named guest.
	PerGuestInvitation LinkCode = "A1"
	// GeneratedLinkNoPlusOne marks an organizer-generated shareable link.
	GeneratedLinkNoPlusOne LinkCode = "L0"
	// GeneratedLinkWithPlusOne is the same, but the link grants a plus-one.
	GeneratedLinkWithPlusOne LinkCode = "L1"
)

func (c LinkCode) known() bool {
	switch c {
	case PerGuestInvitation, GeneratedLinkNoPlusOne, GeneratedLinkWithPlusOne:
		return true
	}
	return false
}

// Token is the decoded form of the text embedded in a QR code or in the
// /view/<token> path of a shareable URL. Grammar:
//
//	<subjectId>:<nonce>-<linkCode>
//
// where subjectId is a positive decimal integer (a guest id or an event id,
// depending on the link code) and nonce is a UUID.
type Token struct {
	SubjectID uint64
	Nonce     string
	Code      LinkCode
}

// uuidLen is the canonical 8-4-4-4-12 text form. uuid.Parse also accepts
// braced and urn-prefixed forms; the length check rules those out.
const uuidLen = 36

// Decode parses raw token text. Input is trimmed once; any whitespace left
// after that makes the token malformed, so the grammar stays unambiguous.
// Decode never panics and performs no I/O.
func Decode(raw string) (Token, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return Token{}, ErrMalformed
	}

	idPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Token{}, ErrMalformed
	}
	subject, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || subject == 0 {
		return Token{}, ErrMalformed
	}

	// The nonce is fixed-width, so the link code separator is the last '-'.
	sep := strings.LastIndex(rest, "-")
	if sep != uuidLen {
		return Token{}, ErrMalformed
	}
	nonce, code := rest[:sep], LinkCode(rest[sep+1:])
	if _, err := uuid.Parse(nonce); err != nil {
		return Token{}, ErrMalformed
	}
	if !code.known() {
		return Token{}, ErrMalformed
	}

	return Token{SubjectID: subject, Nonce: nonce, Code: code}, nil
}

// Encode renders a token back to its text form. Encode(Decode(s)) == s for
// every well-formed s.
func Encode(t Token) string {
	return fmt.Sprintf("%d:%s-%s", t.SubjectID, t.Nonce, t.Code)
}

// NewNonce returns a fresh random nonce for token issuance.
func NewNonce() string {
	return uuid.NewString()
}
