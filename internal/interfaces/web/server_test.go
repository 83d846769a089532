package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/badstu-booker/internal/application/usecases"
	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/domain/booking"
	"github.com/example/badstu-booker/internal/infrastructure/mock"
	"github.com/example/badstu-booker/internal/interfaces/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type unusedDriver struct{}

func (unusedDriver) Name() string { return "planyo" }
func (unusedDriver) Open(context.Context, booking.OrderRequest) (booking.Session, error) {
	panic("real driver must not be used in tests")
}

type testServer struct {
	srv     *web.Server
	cookies *auth.PersonCookie
	orders  *usecases.PlaceOrder
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gate, err := auth.NewGate("badstu", bcrypt.MinCost)
	require.NoError(t, err)

	mck, err := mock.NewDriver(mock.DriverConfig{
		Secret: gate,
		Sleep:  func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)
	orders, err := usecases.NewPlaceOrder(usecases.PlaceOrderConfig{Secret: gate, Real: unusedDriver{}, Mock: mck})
	require.NoError(t, err)

	cookies := auth.NewPersonCookie(auth.GenerateKeys())
	srv, err := web.NewServer(web.ServerConfig{
		Orders:   orders,
		Secret:   gate,
		Cookies:  cookies,
		BaseURL:  "https://badstu.example.com",
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC) },
		Debug:    true,
	})
	require.NoError(t, err)
	return testServer{srv: srv, cookies: cookies, orders: orders}
}

func orderQuery(password string) url.Values {
	return url.Values{
		"password":  {password},
		"sted":      {"sukkerbiten"},
		"date":      {"2024-03-10"},
		"time":      {"8.5"},
		"antall":    {"2"},
		"isMember":  {"on"},
		"fornavn":   {"Ola"},
		"etternavn": {"Nordmann"},
		"epost":     {"ola@example.com"},
		"mobil":     {"99999999"},
		"useMock":   {"true"},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestRequireSecret(t *testing.T) {
	tests := map[string]struct {
		path        string
		expCode     int
		expLocation string
	}{
		"Missing password":       {path: "/", expCode: http.StatusFound, expLocation: "/login"},
		"Wrong password":         {path: "/?password=feil", expCode: http.StatusFound, expLocation: "/login?cause=invalid-password"},
		"Correct password":       {path: "/?password=badstu", expCode: http.StatusOK},
		"Order page without one": {path: "/order?sted=langkaia", expCode: http.StatusFound, expLocation: "/login"},
	}

	ts := newTestServer(t)
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, test.path, nil))
			assert.Equal(t, test.expCode, rec.Code)
			assert.Equal(t, test.expLocation, rec.Header().Get("Location"))
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Login page shows the invalid password cause", func(t *testing.T) {
		rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/login?cause=invalid-password", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Feil passord")
	})

	tests := map[string]struct {
		password    string
		expCode     int
		expLocation string
	}{
		"Correct password redirects to the form": {password: "badstu", expCode: http.StatusFound, expLocation: "/?password=badstu"},
		"Wrong password re-renders":              {password: "feil", expCode: http.StatusUnauthorized},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"password": {test.password}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := do(t, ts.srv.Handler(), req)
			assert.Equal(t, test.expCode, rec.Code)
			assert.Equal(t, test.expLocation, rec.Header().Get("Location"))
			if test.expCode == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), "Feil passord")
			}
		})
	}
}

func TestIndexPrefill(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Share link shows the invitation", func(t *testing.T) {
		rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet,
			"/?password=badstu&date=2024-03-10&time=8.5&sted=sukkerbiten&share=true", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Du har blitt invitert med i badstuen 08:30 søndag 10. mars 2024 på Sukkerbiten")
		assert.Contains(t, body, "<title>Badstu Sukkerbiten</title>")
		assert.Contains(t, body, `value="2024-03-10"`)
	})

	t.Run("Relative date is preselected", func(t *testing.T) {
		rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/?password=badstu&date=neste-onsdag", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="neste-onsdag" checked`)
	})

	t.Run("Person info comes from the cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, ts.cookies.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), auth.PersonInfo{
			FirstName: "Kari", LastName: "Nordmann", Email: "kari@example.com", Mobile: "98765432", PartySize: 3,
		}))

		req := httptest.NewRequest(http.MethodGet, "/?password=badstu", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		body := do(t, ts.srv.Handler(), req).Body.String()
		assert.Contains(t, body, `value="Kari"`)
		assert.Contains(t, body, `value="kari@example.com"`)
		assert.Contains(t, body, `<option value="3" selected>`)
	})
}

func TestOrderPage(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Valid order renders the live page and remembers the person", func(t *testing.T) {
		rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/order?"+orderQuery("badstu").Encode(), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "08:30 søndag 10. mars 2024 på Sukkerbiten")
		assert.Contains(t, body, "EventSource")
		assert.Contains(t, body, "https://badstu.example.com/?date=2024-03-10")
		assert.Contains(t, body, "share=true")

		var found bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == "person-info" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Invalid order re-renders the form with errors", func(t *testing.T) {
		q := orderQuery("badstu")
		q.Set("antall", "7")
		q.Set("epost", "nope")
		rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/order?"+q.Encode(), nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "antall: max")
		assert.Contains(t, body, "epost: email")
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestOrderStreamValidation(t *testing.T) {
	ts := newTestServer(t)
	q := orderQuery("badstu")
	q.Set("sted", "bislett")
	q.Del("fornavn")

	rec := do(t, ts.srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/order?"+q.Encode(), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, map[string]string{"sted": "place", "fornavn": "required"}, body.Fields)
}

func TestOrderStream(t *testing.T) {
	tests := map[string]struct {
		password string
		check    func(t *testing.T, body string)
	}{
		"Mock order streams to DONE": {
			password: "badstu",
			check: func(t *testing.T, body string) {
				assert.True(t, strings.HasPrefix(body, "event:status\ndata:PENDING\n\n"), body)
				assert.True(t, strings.HasSuffix(body, "event:status\ndata:DONE\n\n"), body)
				assert.Equal(t, 1, strings.Count(body, "data:DONE"))
				assert.Contains(t, body, "event:log\ndata:🧪🧪 MOCK 🧪🧪\n\n")
				assert.Contains(t, body, "data:✅ done: MOCK-")
			},
		},
		"Wrong secret is reported in the stream": {
			password: "feil",
			check: func(t *testing.T, body string) {
				assert.Equal(t, "event:log\ndata:❌ WRONG PASSWORD ❌\n\n", body)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)
			hs := httptest.NewServer(ts.srv.Handler())
			defer hs.Close()

			resp, err := http.Get(hs.URL + "/api/order?" + orderQuery(test.password).Encode())
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

			b, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			test.check(t, string(b))

			ts.orders.Wait()
		})
	}
}
