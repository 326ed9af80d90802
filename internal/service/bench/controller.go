package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"validator-bench/internal/bus"
	"validator-bench/internal/models"
	"validator-bench/internal/schema"
	"validator-bench/internal/service/resource"
	"validator-bench/internal/service/window"
)

// Controller runs one validator over one bus connection for a fixed
// window. A Controller may be reused for consecutive runs, but runs must
// not overlap.
type Controller struct {
	bus      bus.Bus
	duration time.Duration
	sampler  resource.Sampler
	ids      *window.Generator
	gc       bool
	tracker  Tracker
	logger   zerolog.Logger
}

// Tracker is told about every window the controller opens.
type Tracker interface {
	Track(w *window.Window)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSampler replaces the process sampler.
func WithSampler(s resource.Sampler) Option {
	return func(c *Controller) { c.sampler = s }
}

// WithGenerator sets the run ID generator.
func WithGenerator(g *window.Generator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithGC forces a garbage collection before each window opens.
func WithGC(enabled bool) Option {
	return func(c *Controller) { c.gc = enabled }
}

// WithTracker reports each opened window to t.
func WithTracker(t Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// WithLogger sets the logger for run lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a controller with a window of d.
func NewController(b bus.Bus, d time.Duration, opts ...Option) (*Controller, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrConfiguration, d)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: no message bus", ErrConfiguration)
	}
	c := &Controller{
		bus:      b,
		duration: d,
		sampler:  resource.NewProcess(),
		ids:      window.NewGenerator(),
		gc:       true,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Duration returns the window length.
func (c *Controller) Duration() time.Duration {
	return c.duration
}

// Run measures v under the name library. Validation failures are data:
// only a connection failure, cancellation or a degenerate window returns
// an error, always as a *RunError.
func (c *Controller) Run(ctx context.Context, library string, v schema.Validator) (Result, error) {
	id := c.ids.Next(library)
	logger := c.logger.With().Str("runId", id).Str("library", library).Logger()
	fail := func(err error) (Result, error) {
		return Result{}, &RunError{Library: library, RunID: id, Err: err}
	}

	conn, err := c.bus.Connect(ctx)
	if err != nil {
		return fail(transportError("connect", err))
	}
	defer conn.Close()
	if err := conn.SubscribeAll(ctx); err != nil {
		return fail(transportError("subscribe", err))
	}

	if c.gc {
		runtime.GC()
	}

	// Owned by this run only.
	errs := &schema.ErrorCounter{}
	var counts Counts
	var hit bool
	onValid := func(string, models.Kind, any) {
		counts.Dispatched++
		hit = true
	}

	start := c.sampler.Sample()
	win, err := window.Open(id, start.Wall, c.duration)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrConfiguration, err))
	}
	if c.tracker != nil {
		c.tracker.Track(win)
	}
	logger.Info().Dur("window", win.Duration()).Msg("Run window opened")

	timer := time.NewTimer(win.Duration())
	defer timer.Stop()
	msgs := conn.Messages()

loop:
	for {
		select {
		case <-timer.C:
			break loop
		case <-ctx.Done():
			win.Abort(time.Now())
			logger.Warn().Err(ctx.Err()).Msg("Run aborted")
			return fail(ctx.Err())
		case m, ok := <-msgs:
			if !ok {
				// Connection gone; keep the window running so the
				// elapsed time stays what was configured.
				msgs = nil
				continue
			}
			counts.Received++
			hit = false
			v.ValidateAndDispatch(m.Payload, onValid, errs)
			if hit {
				counts.Processed++
			}
		}
	}

	end := c.sampler.Sample()
	if err := conn.Close(); err != nil {
		logger.Warn().Err(err).Msg("Bus connection close failed")
	}
	counts.Errors = errs.Count()
	r, err := Collect(library, start, end, counts)
	if err != nil {
		win.Abort(end.Wall)
		return fail(err)
	}
	if err := win.Close(end.Wall); err != nil {
		return fail(err)
	}
	r.RunID = id

	logger.Info().
		Uint64("received", r.MessagesReceived).
		Uint64("processed", r.MessagesProcessed).
		Uint64("errors", r.ValidationErrors).
		Float64("messagesPerSecond", r.MessagesPerSecond).
		Msg("Run window closed")
	return r, nil
}

func transportError(op string, err error) error {
	var te *bus.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &bus.TransportError{Driver: "bus", Op: op, Err: err}
}
