package scanner

import "context"

// Frame is one camera frame, opaque to this package.
type Frame []byte

// Camera is the frame source. NextFrame must honor ctx cancellation: when
// the scan session is stopped, the controller cancels the session context
// and expects any blocked NextFrame call to return promptly. Stop releases
// the underlying device; the controller guarantees exactly one Stop per
// successful Start.
type Camera interface {
	Start(ctx context.Context) error
	NextFrame(ctx context.Context) (Frame, error)
	Stop()
}

// Detector extracts at most one raw token candidate from a frame. It is an
// external collaborator (an off-the-shelf QR decoder); this package treats
// it as a black box.
type Detector interface {
	Detect(f Frame) (raw string, ok bool)
}
