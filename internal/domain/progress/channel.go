package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/log"
)

const defaultBuffer = 64

// ChannelConfig is the configuration of a progress channel.
type ChannelConfig struct {
	// Buffer is the number of events held before senders block.
	Buffer int
	Logger log.Logger
	Now    func() time.Time
}

func (c *ChannelConfig) defaults() {
	if c.Buffer <= 0 {
		c.Buffer = defaultBuffer
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Channel delivers the events of one attempt, in order, to a single reader.
//
// Once the token triggers, sends are dropped and Events is closed; anything buffered
// before that stays readable. Statuses must move strictly forward and DONE seals the
// channel, so DONE is always the last event a reader sees.
type Channel struct {
	token  *Token
	events chan Event
	logger log.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	sealed bool
	last   booking.OrderStatus
}

// NewChannel returns a channel bound to tok.
func NewChannel(tok *Token, cfg ChannelConfig) *Channel {
	cfg.defaults()
	c := &Channel{
		token:  tok,
		events: make(chan Event, cfg.Buffer),
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	go func() {
		<-tok.Done()
		c.close()
	}()
	return c
}

// Events is closed once the attempt's token has triggered.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) Token() *Token {
	return c.token
}

func (c *Channel) Log(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(Event{Kind: KindLog, Data: fmt.Sprintf(format, args...)})
}

func (c *Channel) Status(s booking.OrderStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.Valid() {
		c.logger.Warningf("dropping unknown status %q", s)
		return
	}
	if c.last != "" && !c.last.Before(s) {
		c.logger.Debugf("dropping status %s after %s", s, c.last)
		return
	}
	if c.sendLocked(Event{Kind: KindStatus, Data: string(s)}) {
		c.last = s
		c.sealed = s.IsTerminal()
	}
}

// Abort triggers the attempt's token.
func (c *Channel) Abort(cause error) {
	c.token.Trigger(cause)
}

// LastStatus is the last status delivered, empty when none was.
func (c *Channel) LastStatus() booking.OrderStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Channel) sendLocked(ev Event) bool {
	if c.closed || c.sealed || c.token.Triggered() {
		return false
	}
	ev.Time = c.now()
	select {
	case c.events <- ev:
	case <-c.token.Done():
		return false
	}
	c.logger.Infof("%s: %s", ev.Kind, ev.Data)
	return true
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
