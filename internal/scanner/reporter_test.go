package scanner

import (
	"testing"

	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/services"
)

func TestReporter_Counters(t *testing.T) {
	var r Reporter

	fb := r.Record(services.Outcome{Accepted: true, Record: &models.CheckIn{}})
	if fb != FeedbackPositive {
		t.Errorf("accepted feedback = %v, want positive", fb)
	}

	// every rejection kind maps onto the same negative signal
	for _, reason := range []services.RejectReason{
		services.ReasonAlreadyUsed,
		services.ReasonExpired,
		services.ReasonNotFound,
		services.ReasonEventMismatch,
	} {
		if fb := r.Record(services.Outcome{Reason: reason}); fb != FeedbackNegative {
			t.Errorf("%s feedback = %v, want negative", reason, fb)
		}
	}

	if fb := r.RecordLocalFailure(); fb != FeedbackNegative {
		t.Errorf("local failure feedback = %v, want negative", fb)
	}

	want := Counters{Scanned: 6, Success: 1, Error: 5}
	if got := r.Counters(); got != want {
		t.Errorf("counters = %+v, want %+v", got, want)
	}
}
