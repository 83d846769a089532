package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/domain/progress"
	"github.com/example/badstu-booker/internal/internaltypes"
	"github.com/example/badstu-booker/internal/log"
)

// PlaceOrderConfig is the configuration of the order use case.
type PlaceOrderConfig struct {
	Secret booking.SecretChecker
	// Real drives the booking site, Mock replays a script. UseMock on the request picks one.
	Real   booking.Driver
	Mock   booking.Driver
	Logger log.Logger
	// Buffer is the progress channel size of each attempt.
	Buffer int
	IDs    func() string
}

func (c *PlaceOrderConfig) defaults() error {
	if c.Secret == nil {
		return fmt.Errorf("secret checker is required")
	}
	if c.Real == nil {
		return fmt.Errorf("real driver is required")
	}
	if c.Mock == nil {
		return fmt.Errorf("mock driver is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "usecases.PlaceOrder"})
	if c.IDs == nil {
		c.IDs = func() string { return ulid.Make().String() }
	}
	return nil
}

// PlaceOrder runs order attempts. Attempts are independent; nothing is shared between them
// except the read-only configuration.
type PlaceOrder struct {
	cfg      PlaceOrderConfig
	inflight sync.WaitGroup
}

func NewPlaceOrder(cfg PlaceOrderConfig) (*PlaceOrder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &PlaceOrder{cfg: cfg}, nil
}

// Attempt is one running order.
type Attempt struct {
	ID string

	ch   *progress.Channel
	done chan struct{}
	err  error
}

// Events yields the attempt's progress in order and is closed when the attempt ends.
func (a *Attempt) Events() <-chan progress.Event { return a.ch.Events() }

// Cancel asks the attempt to stop at its next step.
func (a *Attempt) Cancel() { a.ch.Abort(internaltypes.ErrAborted) }

// Wait blocks until the attempt has returned and its session has been released.
func (a *Attempt) Wait() error {
	<-a.done
	return a.err
}

// Start runs req in the background. Cancelling ctx cancels the attempt.
func (p *PlaceOrder) Start(ctx context.Context, req booking.OrderRequest) *Attempt {
	id := p.cfg.IDs()
	logger := p.cfg.Logger.WithValues(log.Kv{"attempt": id})

	tok := progress.NewToken(ctx)
	a := &Attempt{
		ID:   id,
		ch:   progress.NewChannel(tok, progress.ChannelConfig{Buffer: p.cfg.Buffer, Logger: logger}),
		done: make(chan struct{}),
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer close(a.done)
		logger.Infof("ℹ️ new order request")
		a.err = p.execute(tok.Context(), req, a.ch, logger)
		logger.Infof("ℹ️ order request done")
	}()

	return a
}

// Execute runs one attempt synchronously, emitting to ch. The channel's token is always
// triggered before Execute returns.
func (p *PlaceOrder) Execute(ctx context.Context, req booking.OrderRequest, ch *progress.Channel) error {
	return p.execute(ctx, req, ch, p.cfg.Logger)
}

// Wait blocks until every started attempt has finished.
func (p *PlaceOrder) Wait() {
	p.inflight.Wait()
}

func (p *PlaceOrder) execute(ctx context.Context, req booking.OrderRequest, ch *progress.Channel, logger log.Logger) (err error) {
	tok := ch.Token()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while placing order: %v", r)
			logger.Errorf("%s", err)
			p.fail(ch, err)
		}
		if err != nil {
			tok.Trigger(err)
			return
		}
		tok.Trigger(internaltypes.ErrFinished)
	}()

	if !p.cfg.Secret.Check(req.Secret) {
		ch.Log("❌ WRONG PASSWORD ❌")
		logger.Warningf("order rejected: wrong password")
		return internaltypes.ErrUnauthorized
	}

	drv := p.cfg.Real
	if req.UseMock {
		drv = p.cfg.Mock
	}
	logger = logger.WithValues(log.Kv{"driver": drv.Name()})
	ch.Status(booking.StatusPending)

	sess, err := drv.Open(ctx, req)
	if err != nil {
		err = fmt.Errorf("could not start %s session: %w", drv.Name(), err)
		p.fail(ch, err)
		return err
	}
	defer func() {
		if req.Debug {
			logger.Infof("debug order, leaving %s session open for inspection", drv.Name())
			return
		}
		if err := sess.Close(); err != nil {
			logger.Errorf("could not close %s session: %s", drv.Name(), err)
		}
	}()

	if err := sess.Drive(ctx, req, ch); err != nil {
		// Nothing more reaches the reader once the attempt was cancelled or rejected.
		if tok.Triggered() || errors.Is(err, internaltypes.ErrUnauthorized) {
			return err
		}
		p.fail(ch, err)
		return err
	}

	ch.Status(booking.StatusDone)
	return nil
}

func (p *PlaceOrder) fail(ch *progress.Channel, err error) {
	ch.Log("❌ got error: %s", err)
	ch.Status(booking.StatusDone)
}
