package token

import (
	"fmt"
	"testing"
)

const nonce = "5e1f8a9c-3b2d-4e6f-8a1b-9c0d1e2f3a4b"

// TestDecode_RoundTrip verifies Encode(Decode(s)) == s for well-formed
// tokens of every link code.
func TestDecode_RoundTrip(t *testing.T) {
	inputs := []string{
		fmt.Sprintf("42:%s-A1", nonce),
		fmt.Sprintf("7:%s-L0", nonce),
		fmt.Sprintf("18446744073709551615:%s-L1", nonce),
	}
	for _, in := range inputs {
		tok, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode(%q): %v", in, err)
		}
		if got := Encode(tok); got != in {
			t.Errorf("round trip: Encode(Decode(%q)) = %q", in, got)
		}
	}
}

func TestDecode_TrimsOuterWhitespace(t *testing.T) {
	in := fmt.Sprintf("  42:%s-A1\n", nonce)
	tok, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tok.SubjectID != 42 || tok.Code != PerGuestInvitation {
		t.Errorf("unexpected token %+v", tok)
	}
}

// TestDecode_Malformed runs the rejection corpus: every case must return
// ErrMalformed and none may panic.
func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":               "",
		"free text":           "not-a-token",
		"missing colon":       fmt.Sprintf("42%s-A1", nonce),
		"zero subject":        fmt.Sprintf("0:%s-A1", nonce),
		"negative subject":    fmt.Sprintf("-1:%s-A1", nonce),
		"non-numeric subject": fmt.Sprintf("abc:%s-A1", nonce),
		"subject overflow":    fmt.Sprintf("99999999999999999999:%s-A1", nonce),
		"bad uuid":            "42:not-a-uuid-at-all-but-36-chars-long!-A1",
		"short uuid":          "42:5e1f8a9c-3b2d-4e6f-8a1b-A1",
		"braced uuid":         fmt.Sprintf("42:{%s}-A1", nonce),
		"unknown link code":   fmt.Sprintf("42:%s-Z9", nonce),
		"missing link code":   fmt.Sprintf("42:%s-", nonce),
		"embedded space":      fmt.Sprintf("42: %s-A1", nonce),
		"embedded tab":        fmt.Sprintf("42:%s-A1\tx", nonce),
		"embedded newline":    fmt.Sprintf("42:%s-\nA1", nonce),
	}
	for name, in := range cases {
		if _, err := Decode(in); err != ErrMalformed {
			t.Errorf("%s: Decode(%q) err = %v, want ErrMalformed", name, in, err)
		}
	}
}

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		code    LinkCode
		kind    Kind
		plusOne bool
		guestID uint64
		eventID uint64
	}{
		{PerGuestInvitation, KindGuestBound, false, 42, 0},
		{GeneratedLinkNoPlusOne, KindGeneratedShareable, false, 0, 42},
		{GeneratedLinkWithPlusOne, KindGeneratedShareable, true, 0, 42},
	}
	for _, c := range cases {
		tok := Token{SubjectID: 42, Nonce: nonce, Code: c.code}
		k := Classify(tok)
		if k.Kind != c.kind || k.PlusOneAuthorized != c.plusOne ||
			k.GuestID != c.guestID || k.EventID != c.eventID {
			t.Errorf("Classify(%s) = %+v", c.code, k)
		}
		if k.UsesRemaining != nil {
			t.Errorf("Classify(%s): UsesRemaining must be resolved by the authority, got %v", c.code, *k.UsesRemaining)
		}
		// purity: a second call yields the identical classification
		if again := Classify(tok); again != k {
			t.Errorf("Classify(%s) not deterministic: %+v vs %+v", c.code, k, again)
		}
	}
}

// TestPlusOneEligible pins the exact rule:
// guest OR (link AND event). Reordering it is a known bug source.
func TestPlusOneEligible(t *testing.T) {
	cases := []struct {
		guest, link, event, want bool
	}{
		{false, false, false, false},
		{false, false, true, false},
		{false, true, false, false}, // link grant alone is not enough
		{false, true, true, true},
		{true, false, false, true}, // guest flag wins unconditionally
		{true, false, true, true},
		{true, true, false, true},
		{true, true, true, true},
	}
	for _, c := range cases {
		if got := PlusOneEligible(c.guest, c.link, c.event); got != c.want {
			t.Errorf("PlusOneEligible(%v, %v, %v) = %v, want %v",
				c.guest, c.link, c.event, got, c.want)
		}
	}
}
