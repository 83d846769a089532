// Package planyo books sauna sessions by driving the Planyo booking site in a browser.
package planyo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/internaltypes"
	"github.com/example/badstu-booker/internal/log"
)

// Page is the subset of browser interactions the booking flow needs. Selectors are CSS.
// Every call is bounded by the page's own step timeout, not by the caller's context, so an
// interaction in flight is allowed to finish.
type Page interface {
	Navigate(url string) error
	// Value returns the current value of a form control.
	Value(sel string) (string, error)
	// Text returns the text content of the first match, waiting for it to exist.
	Text(sel string) (string, error)
	// Texts returns the text content of every current match, possibly none.
	Texts(sel string) ([]string, error)
	Fill(sel, value string) error
	Blur(sel string) error
	Check(sel string) error
	Click(sel string) error
	// ClickText clicks the innermost element containing text.
	ClickText(text string) error
	// SelectInGroup sets the select inside the first element matching groupSel whose text
	// contains hasText and not excludeText.
	SelectInGroup(groupSel, hasText, excludeText, value string) error
	WaitVisible(sel string) error
	Close() error
}

// LaunchOptions is how a browser page for one attempt is started.
type LaunchOptions struct {
	Headless    bool
	SlowMo      time.Duration
	StepTimeout time.Duration
	ExecPath    string
	RemoteURL   string
}

// LaunchFunc starts an isolated browser and returns its page.
type LaunchFunc func(opts LaunchOptions) (Page, error)

const (
	slowMoDebug = 400 * time.Millisecond
	slowMo      = 200 * time.Millisecond
)

// DriverConfig is the configuration of the Planyo driver.
type DriverConfig struct {
	Secret  booking.SecretChecker
	BaseURL string
	// StepTimeout bounds each page interaction.
	StepTimeout time.Duration
	ChromePath  string
	// RemoteURL connects to an already running browser instead of launching one.
	RemoteURL string
	Launch    LaunchFunc
	// HTTPClient is used by Ping only.
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *DriverConfig) defaults() error {
	if c.Secret == nil {
		return fmt.Errorf("secret checker is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = booking.DefaultSiteURL
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 120 * time.Second
	}
	if c.Launch == nil {
		c.Launch = LaunchChrome
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "driver.planyo"})
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

func (d *Driver) Name() string { return "planyo" }

// Open launches the browser for one attempt. The browser belongs to the returned session
// and outlives ctx; only Close releases it.
func (d *Driver) Open(ctx context.Context, req booking.OrderRequest) (booking.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := LaunchOptions{
		Headless:    !req.Debug,
		SlowMo:      slowMo,
		StepTimeout: d.cfg.StepTimeout,
		ExecPath:    d.cfg.ChromePath,
		RemoteURL:   d.cfg.RemoteURL,
	}
	if req.Debug {
		opts.SlowMo = slowMoDebug
	}
	page, err := d.cfg.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	d.cfg.Logger.Debugf("browser launched (headless: %t)", opts.Headless)
	return &session{cfg: d.cfg, page: page}, nil
}

type session struct {
	cfg  DriverConfig
	page Page
}

func (s *session) Close() error {
	return s.page.Close()
}

const (
	antallGroupSel = "#rental_prop_Antall_personer .form-group"
	memberText     = "medlem"
	nonMemberText  = "ikke-medlem"
)

type shoppingCart struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Amount string `json:"amount,omitempty"`
	Price  string `json:"price"`
}

type orderLine struct {
	ReservationID string `json:"reservationId"`
	Name          string `json:"name"`
	Time          string `json:"time"`
	Price         string `json:"price"`
}

// Drive runs the booking flow. Every step is logged, cancellation is checked between steps
// and nothing is retried. A start time other than the requested one stops the flow before
// any personal info is entered.
func (s *session) Drive(ctx context.Context, req booking.OrderRequest, emit booking.Emitter) error {
	if !s.cfg.Secret.Check(req.Secret) {
		emit.Log("❌ WRONG PASSWORD ❌")
		emit.Abort(internaltypes.ErrUnauthorized)
		return internaltypes.ErrUnauthorized
	}
	emit.Log("🤖 Ordering with info: %s", req.Summary())

	orderURL, err := booking.BuildOrderURL(s.cfg.BaseURL, req.Place, req.Date, req.Time)
	if err != nil {
		return err
	}

	p := s.page
	emit.Log("🧭 navigating to %s", orderURL)
	if err := p.Navigate(orderURL); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	startTime, err := p.Value("#start_time")
	if err != nil {
		return fmt.Errorf("read start time: %w", err)
	}
	if !sameTime(startTime, req.Time) {
		emit.Log("❌ chosen time %s does not match selected start time %s", req.Time, startTime)
		return fmt.Errorf("%w: chosen %s, page has %s", internaltypes.ErrSlotMismatch, req.Time, startTime)
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Status(booking.StatusClickingButtons)
	emit.Log("🖊 setting antall to %d", req.PartySize)
	has, exclude := nonMemberText, ""
	if req.IsMember {
		has, exclude = memberText, nonMemberText
	}
	if err := p.SelectInGroup(antallGroupSel, has, exclude, strconv.Itoa(req.PartySize)); err != nil {
		return fmt.Errorf("select antall: %w", err)
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Status(booking.StatusEnteringInfo)
	for _, f := range []struct{ sel, value string }{
		{"#first", req.FirstName},
		{"#last", req.LastName},
		{"#email", req.Email},
		{"#mobile_number_param", req.Mobile},
	} {
		emit.Log("🖊 filling in %s", f.value)
		if err := p.Fill(f.sel, f.value); err != nil {
			return fmt.Errorf("fill %s: %w", f.sel, err)
		}
	}

	emit.Log("☑️ accepting terms")
	if err := p.Check("#rental_prop_agreement"); err != nil {
		return fmt.Errorf("accept terms: %w", err)
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Log("🤘 clicking submit")
	if err := p.Click("#submit_button"); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	cart, err := readCart(p)
	if err != nil {
		return fmt.Errorf("read shopping cart: %w", err)
	}
	emit.Log("🛒 shooping card %s", toJSON(cart))

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Log("🤘 clicking Bekreft/Betal")
	if err := p.ClickText("Bekreft/Betal"); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}

	line, err := readOrderLine(p)
	if err != nil {
		return fmt.Errorf("read order line: %w", err)
	}
	emit.Log("📠 order line %s", toJSON(line))

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Status(booking.StatusRequestingPayment)
	emit.Log("🤘 clicking Betal nå")
	if err := p.ClickText("Betal nå"); err != nil {
		return fmt.Errorf("pay: %w", err)
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Log("🤘 Pay with vipps")
	if err := p.Click("#paymentMethodHeading_vipps"); err != nil {
		return fmt.Errorf("choose vipps: %w", err)
	}
	emit.Log("🖊 filling in %s", req.Mobile)
	if err := p.Fill("#vippsPhonenumber", req.Mobile); err != nil {
		return fmt.Errorf("fill vipps number: %w", err)
	}
	if err := p.Blur("#vippsPhonenumber"); err != nil {
		return fmt.Errorf("fill vipps number: %w", err)
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Log("🤘 go to Vipps")
	if err := p.Click("#vippsContinueBtn"); err != nil {
		return fmt.Errorf("go to vipps: %w", err)
	}
	desc, err := p.Text("main .description")
	if err != nil {
		return fmt.Errorf("read vipps description: %w", err)
	}
	emit.Log("💸 vippps: %s", strings.TrimSpace(desc))

	if err := checkpoint(ctx); err != nil {
		return err
	}
	emit.Status(booking.StatusWaitingForPayment)
	emit.Log("🤘 clicking final Vipps button")
	if err := p.Click(".primary-button"); err != nil {
		return fmt.Errorf("final vipps button: %w", err)
	}
	emit.Log("⏳ waiting for payment in Vipps app")
	if err := p.WaitVisible(".rental-id"); err != nil {
		return fmt.Errorf("wait for payment: %w", err)
	}
	emit.Log("got load state")

	if err := checkpoint(ctx); err != nil {
		return err
	}
	rentalID, err := p.Text(".rental-id")
	if err != nil {
		return fmt.Errorf("read reservation id: %w", err)
	}
	emit.Log("✅ done: %s", strings.TrimSpace(rentalID))
	emit.Status(booking.StatusDone)
	return nil
}

func checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

// sameTime compares the page's start time with the requested token numerically,
// so "07" matches "7" and "8.5" matches "8.50".
func sameTime(page, requested string) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(page), 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(requested), 64)
	if err != nil {
		return false
	}
	return a == b
}

func readCart(p Page) (shoppingCart, error) {
	var c shoppingCart
	var err error
	if c.Name, err = p.Text(".cart-item .resource-contents h4"); err != nil {
		return c, err
	}
	leads, err := p.Texts(".cart-item .resource-contents .lead")
	if err != nil {
		return c, err
	}
	if len(leads) > 0 {
		c.Time = leads[0]
	}
	if len(leads) > 1 {
		c.Amount = leads[1]
	}
	if c.Price, err = p.Text(".cart-item .price"); err != nil {
		return c, err
	}
	c.Name, c.Time, c.Amount, c.Price = trim(c.Name), trim(c.Time), trim(c.Amount), trim(c.Price)
	return c, nil
}

func readOrderLine(p Page) (orderLine, error) {
	var l orderLine
	for _, f := range []struct {
		sel string
		dst *string
	}{
		{"tbody > tr > td.col_id", &l.ReservationID},
		{"tbody > tr > td.col_res", &l.Name},
		{"tbody > tr > td.col_time", &l.Time},
		{"tbody > tr > td.col_price", &l.Price},
	} {
		v, err := p.Text(f.sel)
		if err != nil {
			return l, err
		}
		*f.dst = trim(v)
	}
	return l, nil
}

func trim(s string) string { return strings.TrimSpace(s) }

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
