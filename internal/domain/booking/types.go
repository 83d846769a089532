package booking

import "strings"

type Place string

const (
	PlaceSukkerbiten Place = "sukkerbiten"
	PlaceLangkaia    Place = "langkaia"
)

// Places lists the venues in the order they are offered in the form.
func Places() []Place {
	return []Place{PlaceSukkerbiten, PlaceLangkaia}
}

func (p Place) Valid() bool {
	switch p {
	case PlaceSukkerbiten, PlaceLangkaia:
		return true
	}
	return false
}

// Title is the display name of the venue.
func (p Place) Title() string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// OrderStatus is the coarse progress of one booking attempt. Statuses only move forward.
type OrderStatus string

const (
	StatusPending           OrderStatus = "PENDING"
	StatusClickingButtons   OrderStatus = "CLICKING_BUTTONS"
	StatusEnteringInfo      OrderStatus = "ENTERING_INFO"
	StatusRequestingPayment OrderStatus = "REQUESTING_PAYMENT"
	StatusWaitingForPayment OrderStatus = "WAITING_FOR_PAYMENT"
	// StatusDone is terminal for both successful and failed attempts.
	StatusDone OrderStatus = "DONE"
)

var statusOrder = []OrderStatus{
	StatusPending,
	StatusClickingButtons,
	StatusEnteringInfo,
	StatusRequestingPayment,
	StatusWaitingForPayment,
	StatusDone,
}

// Rank returns the position of the status in the lifecycle, or -1 when unknown.
func (s OrderStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool { return s.Rank() >= 0 }

// Before reports whether s comes strictly before o in the lifecycle.
func (s OrderStatus) Before(o OrderStatus) bool {
	return s.Valid() && o.Valid() && s.Rank() < o.Rank()
}

func (s OrderStatus) IsTerminal() bool { return s == StatusDone }
