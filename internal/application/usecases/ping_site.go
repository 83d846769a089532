package usecases

import (
	"context"
	"fmt"
)

// SitePinger checks that a booking site is reachable without booking anything.
type SitePinger interface {
	Name() string
	Ping(ctx context.Context) error
}

type PingSite struct {
	Site SitePinger
}

func (u PingSite) Execute(ctx context.Context) error {
	if u.Site == nil {
		return fmt.Errorf("site is nil")
	}
	if err := u.Site.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", u.Site.Name(), err)
	}
	return nil
}
