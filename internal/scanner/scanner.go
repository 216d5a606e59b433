// Package scanner drives the camera scanning loop: a single cooperative
// goroutine that acquires frames, hands detections through decode, classify
// and authorize, and guarantees exactly one authorize call per physical
// detection event.
package scanner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/services"
	"github.com/eventgate/gatekeeper/internal/token"
)

// State of the scan loop.
type State int

const (
	StateIdle State = iota
	StateCameraStarting
	StateScanning
	StateDetected
	StateProcessing
	StateResultSuccess
	StateResultFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCameraStarting:
		return "camera_starting"
	case StateScanning:
		return "scanning"
	case StateDetected:
		return "detected"
	case StateProcessing:
		return "processing"
	case StateResultSuccess:
		return "result_success"
	case StateResultFailure:
		return "result_failure"
	}
	return "unknown"
}

// AuthorizeFunc is the check-in authority as seen by the controller. It is
// the sole suspension point of the loop: the controller never issues a
// second call while one is in flight.
type AuthorizeFunc func(ctx context.Context, tok token.Token, by services.Identity, at time.Time, eventID uint) (services.Outcome, error)

// ScanResult is one terminal outcome of a processed attempt, camera-detected
// or manually entered.
type ScanResult struct {
	Raw       string
	Token     *token.Token // nil when malformed
	Accepted  bool
	Malformed bool
	Reason    services.RejectReason // set on business rejection
	Record    *models.CheckIn
	Err       error // transient failure detail
	Retryable bool
	Feedback  Feedback
	Counters  Counters
}

// Message renders the operator-facing line for this result.
func (r ScanResult) Message() string {
	switch {
	case r.Accepted:
		return "Checked in."
	case r.Malformed:
		return "Unreadable code."
	case r.Err != nil:
		return "Connection problem. Try again."
	default:
		return r.Reason.Message()
	}
}

const defaultAuthorizeTimeout = 10 * time.Second

// Config wires a controller. The active event is passed explicitly here —
// the state machine has no ambient inputs.
type Config struct {
	Camera    Camera
	Detector  Detector
	Authorize AuthorizeFunc
	Operator  services.Identity
	EventID   uint

	// AuthorizeTimeout bounds one authorize round trip; past it the attempt
	// surfaces as a retryable failure. Zero means the default.
	AuthorizeTimeout time.Duration

	// OnResult receives every terminal result. Called from the loop
	// goroutine; it must not block.
	OnResult func(ScanResult)
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdScanNext
	cmdRetry
	cmdSubmit
	cmdShutdown
)

type command struct {
	kind cmdKind
	raw  string
}

// Controller owns the camera lifecycle and the scan state machine. All
// transitions happen on one goroutine; exported methods only post commands
// or cancel the session context.
type Controller struct {
	cfg     Config
	timeout time.Duration

	cmds chan command
	done chan struct{}

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	// loop-confined
	reporter  Reporter
	retryRaw  string
	retryable bool
	closing   bool
}

// New starts the controller loop in StateIdle.
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		timeout: cfg.AuthorizeTimeout,
		cmds:    make(chan command, 8),
		done:    make(chan struct{}),
		state:   StateIdle,
	}
	if c.timeout <= 0 {
		c.timeout = defaultAuthorizeTimeout
	}
	go c.run()
	return c
}

// Start activates the camera and begins scanning.
func (c *Controller) Start() { c.cmds <- command{kind: cmdStart} }

// Stop tears down the current session from any state. The camera is released
// deterministically; an in-flight authorize call is not cancelled but its
// result is discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
}

// ScanNext resumes frame acquisition after a result. Never automatic: the
// operator gets to read the outcome first.
func (c *Controller) ScanNext() { c.cmds <- command{kind: cmdScanNext} }

// Retry resubmits the last decoded token after a transient failure. Business
// rejections are terminal and cannot be retried.
func (c *Controller) Retry() { c.cmds <- command{kind: cmdRetry} }

// Submit is manual code entry: it skips the camera states and enters the
// machine at Processing. It is only honored while no camera session is
// active; submitted mid-session it is dropped without a result — stop the
// camera first to type a code.
func (c *Controller) Submit(raw string) { c.cmds <- command{kind: cmdSubmit, raw: raw} }

// Close stops any session and shuts the loop down. The controller must not
// be used afterwards.
func (c *Controller) Close() {
	c.Stop()
	c.cmds <- command{kind: cmdShutdown}
	<-c.done
}

// State reports the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) inResult() bool {
	s := c.State()
	return s == StateResultSuccess || s == StateResultFailure
}

func (c *Controller) beginSession() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx
}

func (c *Controller) endSession() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

func (c *Controller) emit(r ScanResult) {
	if c.cfg.OnResult != nil {
		c.cfg.OnResult(r)
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for cmd := range c.cmds {
		switch cmd.kind {
		case cmdShutdown:
			return
		case cmdStart:
			if c.cfg.Camera == nil || c.cfg.Detector == nil {
				log.Println("scanner: no camera configured; manual entry only")
				continue
			}
			ctx := c.beginSession()
			c.runSession(ctx)
			c.endSession()
			c.setState(StateIdle)
			if c.closing {
				return
			}
		case cmdSubmit:
			ctx := c.beginSession()
			c.setState(StateProcessing)
			c.process(ctx, cmd.raw)
			c.endSession()
		case cmdScanNext:
			if c.inResult() {
				c.setState(StateIdle)
			}
		case cmdRetry:
			if c.inResult() && c.retryable {
				ctx := c.beginSession()
				c.setState(StateProcessing)
				c.process(ctx, c.retryRaw)
				c.endSession()
			}
		}
	}
}

// runSession runs one camera session. Every exit path passes through the
// deferred Stop, so the camera handle cannot leak.
func (c *Controller) runSession(ctx context.Context) {
	c.setState(StateCameraStarting)
	if err := c.cfg.Camera.Start(ctx); err != nil {
		log.Printf("scanner: camera start: %v", err)
		return
	}
	defer c.cfg.Camera.Stop()
	c.setState(StateScanning)

	for {
		if ctx.Err() != nil {
			return
		}
		if c.State() == StateScanning {
			frame, err := c.cfg.Camera.NextFrame(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("scanner: frame acquisition: %v", err)
				}
				return
			}
			raw, ok := c.cfg.Detector.Detect(frame)
			if !ok {
				continue
			}
			// Halt frame acquisition before anything else: no further
			// NextFrame happens until the operator resumes, so one physical
			// detection yields at most one authorize call even while the
			// round trip is in flight.
			c.setState(StateDetected)
			c.setState(StateProcessing)
			if !c.process(ctx, raw) {
				return
			}
			continue
		}

		// A result is on screen; wait for the operator.
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			switch cmd.kind {
			case cmdShutdown:
				c.closing = true
				return
			case cmdScanNext:
				c.setState(StateScanning)
			case cmdRetry:
				if c.retryable {
					c.setState(StateProcessing)
					if !c.process(ctx, c.retryRaw) {
						return
					}
				}
			}
			// cmdStart / cmdSubmit mid-session are dropped.
		}
	}
}

// process runs decode → classify → authorize for one raw candidate and
// lands in a Result state. Returns false when the session was torn down
// mid-flight, in which case the verdict (if any) is discarded.
func (c *Controller) process(ctx context.Context, raw string) bool {
	c.retryable = false

	tok, err := token.Decode(raw)
	if err != nil {
		// Codec failure is resolved locally; the authority is never called.
		fb := c.reporter.RecordLocalFailure()
		c.setState(StateResultFailure)
		c.emit(ScanResult{Raw: raw, Malformed: true, Feedback: fb, Counters: c.reporter.Counters()})
		return true
	}

	actx, cancel := context.WithTimeout(context.Background(), c.timeout)
	type reply struct {
		out services.Outcome
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		defer cancel()
		out, err := c.cfg.Authorize(actx, tok, c.cfg.Operator, time.Now(), c.cfg.EventID)
		ch <- reply{out, err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		// Teardown: the authorize call itself is not cancelled (no undo of
		// a server-side effect); its result is simply ignored.
		return false
	case <-actx.Done():
		// Prefer a verdict that landed right at the deadline.
		select {
		case r = <-ch:
		default:
			r = reply{err: actx.Err()}
		}
	case r = <-ch:
	}

	if r.err != nil {
		c.retryRaw, c.retryable = raw, true
		fb := c.reporter.RecordLocalFailure()
		c.setState(StateResultFailure)
		c.emit(ScanResult{
			Raw: raw, Token: &tok, Err: r.err, Retryable: true,
			Feedback: fb, Counters: c.reporter.Counters(),
		})
		return true
	}

	fb := c.reporter.Record(r.out)
	if r.out.Accepted {
		c.setState(StateResultSuccess)
	} else {
		c.setState(StateResultFailure)
	}
	c.emit(ScanResult{
		Raw: raw, Token: &tok, Accepted: r.out.Accepted,
		Reason: r.out.Reason, Record: r.out.Record,
		Feedback: fb, Counters: c.reporter.Counters(),
	})
	return true
}
