package token

// Kind discriminates the two invitation families.
type Kind int

const (
	// KindGuestBound: exactly one legitimate holder, single intended use.
	KindGuestBound Kind = iota
	// KindGeneratedShareable: many legitimate holders up to a usage cap.
	KindGeneratedShareable
)

// InvitationKind is the classification of a decoded token. For a guest-bound
// token GuestID is set; for a generated link EventID is set. UsesRemaining is
// nil here: the remaining-use count is resolved by the check-in authority,
// never invented by classification.
type InvitationKind struct {
	Kind              Kind
	GuestID           uint64
	EventID           uint64
	PlusOneAuthorized bool
	UsesRemaining     *uint32
}

// Classify maps a token onto its invitation kind. Pure table over LinkCode;
// no I/O, deterministic.
func Classify(t Token) InvitationKind {
	switch t.Code {
	case GeneratedLinkNoPlusOne:
		return InvitationKind{Kind: KindGeneratedShareable, EventID: t.SubjectID}
	case GeneratedLinkWithPlusOne:
		return InvitationKind{Kind: KindGeneratedShareable, EventID: t.SubjectID, PlusOneAuthorized: true}
	default:
		return InvitationKind{Kind: KindGuestBound, GuestID: t.SubjectID}
	}
}

// PlusOneEligible computes whether the holder may bring a plus-one:
//
//	eligible = guestHasPlusOneFlag OR (linkGrantsPlusOne AND eventAllowsPlusOne)
//
// The guest's own flag wins unconditionally; a link grant only counts when
// the event allows plus-ones at all. Do not reorder.
func PlusOneEligible(guestHasPlusOne, linkGrantsPlusOne, eventAllowsPlusOne bool) bool {
	return guestHasPlusOne || (linkGrantsPlusOne && eventAllowsPlusOne)
}
