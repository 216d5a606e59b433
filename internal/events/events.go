package events

import "github.com/eventgate/gatekeeper/internal/models"

// OnCheckIn is called after the authority accepts a check-in and the record
// is committed. services will call this if it's set.
var OnCheckIn func(rec models.CheckIn)
