package mock_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/domain/progress"
	"github.com/example/badstu-booker/internal/infrastructure/mock"
	"github.com/example/badstu-booker/internal/internaltypes"
)

type staticSecret string

func (s staticSecret) Check(secret string) bool { return secret == string(s) }

func testRequest(secret string) booking.OrderRequest {
	return booking.OrderRequest{
		Place:     booking.PlaceSukkerbiten,
		Date:      "2024-03-10",
		Time:      "8.5",
		PartySize: 2,
		IsMember:  true,
		FirstName: "Ola",
		LastName:  "Nordmann",
		Email:     "ola@example.com",
		Mobile:    "99999999",
		UseMock:   true,
		Secret:    secret,
	}
}

func drain(t *testing.T, ch *progress.Channel) []progress.Event {
	t.Helper()
	var evs []progress.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-timeout:
			t.Fatal("events channel was not closed")
			return evs
		}
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestMockDriverFullScript(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var mu sync.Mutex
	var slept time.Duration
	drv, err := mock.NewDriver(mock.DriverConfig{
		Secret: staticSecret("badstu"),
		Sleep: func(_ context.Context, d time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			slept += d
			return nil
		},
		IDs: func() string { return "01TEST" },
	})
	require.NoError(err)
	assert.Equal("mock", drv.Name())

	tok := progress.NewToken(context.Background())
	ch := progress.NewChannel(tok, progress.ChannelConfig{})

	sess, err := drv.Open(tok.Context(), testRequest("badstu"))
	require.NoError(err)
	require.NoError(sess.Drive(tok.Context(), testRequest("badstu"), ch))
	require.NoError(sess.Close())
	tok.Trigger(internaltypes.ErrFinished)

	evs := drain(t, ch)
	require.NotEmpty(evs)

	// DONE is the final event and appears once.
	last := evs[len(evs)-1]
	assert.Equal(progress.KindStatus, last.Kind)
	assert.Equal(string(booking.StatusDone), last.Data)

	var statuses []string
	var logs []string
	for _, ev := range evs {
		switch ev.Kind {
		case progress.KindStatus:
			statuses = append(statuses, ev.Data)
		case progress.KindLog:
			logs = append(logs, ev.Data)
		}
	}
	assert.Equal([]string{
		string(booking.StatusClickingButtons),
		string(booking.StatusEnteringInfo),
		string(booking.StatusRequestingPayment),
		string(booking.StatusWaitingForPayment),
		string(booking.StatusDone),
	}, statuses)

	for i := 0; i < 5; i++ {
		assert.Equal("🧪🧪 MOCK 🧪🧪", logs[i])
	}
	assert.True(strings.HasPrefix(logs[5], "🤖 Ordering with info: "))
	assert.NotContains(logs[5], "badstu")
	assert.Contains(logs, "🧭 navigating to https://www.planyo.com/booking.php?planyo_lang=NO&mode=reserve&prefill=true&one_date=2024-03-10&start_date=2024-03-10&start_time=8.5&resource_id=184637%27,184637)")
	assert.Contains(logs, "☑️ accepting terms")
	assert.Contains(logs, "⏳ waiting for payment in Vipps app")
	assert.Equal("✅ done: MOCK-01TEST", logs[len(logs)-1])

	assert.Equal(5*100*time.Millisecond+19*300*time.Millisecond+2*time.Second, slept)
}

func TestMockDriverWrongSecret(t *testing.T) {
	drv, err := mock.NewDriver(mock.DriverConfig{Secret: staticSecret("badstu"), Sleep: noSleep})
	require.NoError(t, err)

	tok := progress.NewToken(context.Background())
	ch := progress.NewChannel(tok, progress.ChannelConfig{})

	sess, err := drv.Open(tok.Context(), testRequest("feil"))
	require.NoError(t, err)
	err = sess.Drive(tok.Context(), testRequest("feil"), ch)
	assert.ErrorIs(t, err, internaltypes.ErrUnauthorized)
	assert.True(t, tok.Triggered())

	evs := drain(t, ch)
	require.Len(t, evs, 1)
	assert.Equal(t, progress.KindLog, evs[0].Kind)
	assert.Contains(t, evs[0].Data, "WRONG PASSWORD")
}

func TestMockDriverCancellation(t *testing.T) {
	tok := progress.NewToken(context.Background())
	ch := progress.NewChannel(tok, progress.ChannelConfig{})

	calls := 0
	drv, err := mock.NewDriver(mock.DriverConfig{
		Secret: staticSecret("badstu"),
		Sleep: func(ctx context.Context, _ time.Duration) error {
			calls++
			if calls == 3 {
				tok.Trigger(nil)
			}
			<-time.After(time.Millisecond)
			return context.Cause(ctx)
		},
	})
	require.NoError(t, err)

	sess, err := drv.Open(tok.Context(), testRequest("badstu"))
	require.NoError(t, err)
	err = sess.Drive(tok.Context(), testRequest("badstu"), ch)
	assert.ErrorIs(t, err, internaltypes.ErrAborted)
	assert.Equal(t, 3, calls)

	evs := drain(t, ch)
	assert.Len(t, evs, 3)
	for _, ev := range evs {
		assert.Equal(t, progress.KindLog, ev.Kind)
	}
}

func TestMockDriverRequiresSecretChecker(t *testing.T) {
	_, err := mock.NewDriver(mock.DriverConfig{})
	assert.Error(t, err)
}
