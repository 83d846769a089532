// Package mock is a booking driver that replays a fixed, timed script of the real
// booking flow without contacting any external system.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/internaltypes"
	"github.com/example/badstu-booker/internal/log"
)

// SleepFunc waits for d or until ctx is done, returning ctx's error in that case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DriverConfig is the configuration of the mock driver.
type DriverConfig struct {
	Secret booking.SecretChecker
	// BaseURL is only used to render the navigation log line (booking.DefaultSiteURL when empty).
	BaseURL string
	Sleep   SleepFunc
	IDs     func() string
	Logger  log.Logger
}

func (c *DriverConfig) defaults() error {
	if c.Secret == nil {
		return fmt.Errorf("secret checker is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = booking.DefaultSiteURL
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.IDs == nil {
		c.IDs = func() string { return ulid.Make().String() }
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "driver.mock"})
	return nil
}

type Driver struct {
	cfg DriverConfig
}

func NewDriver(cfg DriverConfig) (*Driver, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Driver{cfg: cfg}, nil
}

func (d *Driver) Name() string { return "mock" }

// Open never fails, the mock has nothing to acquire.
func (d *Driver) Open(ctx context.Context, req booking.OrderRequest) (booking.Session, error) {
	return session{cfg: d.cfg}, nil
}

type session struct {
	cfg DriverConfig
}

func (session) Close() error { return nil }

const (
	bannerDelay = 100 * time.Millisecond
	stepDelay   = 300 * time.Millisecond
	finalDelay  = 2 * time.Second
)

// step is one line of the script. Status, when set, is emitted right before the log line.
type step struct {
	delay  time.Duration
	status booking.OrderStatus
	line   string
}

func script(req booking.OrderRequest, orderURL string) []step {
	return []step{
		{stepDelay, "", "🧭 navigating to " + orderURL},
		{stepDelay, booking.StatusClickingButtons, fmt.Sprintf("🖊 setting antall to %d", req.PartySize)},
		{stepDelay, booking.StatusEnteringInfo, "🖊 filling in " + req.FirstName},
		{stepDelay, "", "🖊 filling in " + req.LastName},
		{stepDelay, "", "🖊 filling in " + req.Email},
		{stepDelay, "", "🖊 filling in " + req.Mobile},
		{stepDelay, "", "☑️ accepting terms"},
		{stepDelay, "", "🤘 clicking submit"},
		{stepDelay, "", "🛒 shooping card MOCK"},
		{stepDelay, "", "🤘 clicking Bekreft/Betal"},
		{stepDelay, "", "📠 order line MOCK"},
		{stepDelay, booking.StatusRequestingPayment, "🤘 clicking Betal nå"},
		{stepDelay, "", "🤘 Pay with vipps"},
		{stepDelay, "", "🖊 filling in " + req.Mobile},
		{stepDelay, "", "🤘 go to Vipps"},
		{stepDelay, "", "💸 vippps: MOCK"},
		{stepDelay, booking.StatusWaitingForPayment, "🤘 clicking final Vipps button"},
		{stepDelay, "", "⏳ waiting for payment in Vipps app"},
		{stepDelay, "", "got load state"},
	}
}

func (s session) Drive(ctx context.Context, req booking.OrderRequest, emit booking.Emitter) error {
	if !s.cfg.Secret.Check(req.Secret) {
		emit.Log("❌ WRONG PASSWORD ❌")
		emit.Abort(internaltypes.ErrUnauthorized)
		return internaltypes.ErrUnauthorized
	}

	for i := 0; i < 5; i++ {
		emit.Log("🧪🧪 MOCK 🧪🧪")
		if err := s.wait(ctx, bannerDelay); err != nil {
			return err
		}
	}

	emit.Log("🤖 Ordering with info: %s", req.Summary())

	orderURL, err := booking.BuildOrderURL(s.cfg.BaseURL, req.Place, req.Date, req.Time)
	if err != nil {
		return err
	}

	for _, st := range script(req, orderURL) {
		if err := s.wait(ctx, st.delay); err != nil {
			return err
		}
		if st.status != "" {
			emit.Status(st.status)
		}
		emit.Log("%s", st.line)
	}

	if err := s.wait(ctx, finalDelay); err != nil {
		return err
	}
	emit.Log("✅ done: MOCK-%s", s.cfg.IDs())
	emit.Status(booking.StatusDone)
	s.cfg.Logger.Debugf("mock order finished")
	return nil
}

func (s session) wait(ctx context.Context, d time.Duration) error {
	if err := s.cfg.Sleep(ctx, d); err != nil {
		return fmt.Errorf("mock order stopped: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
