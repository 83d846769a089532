package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/badstu-booker/internal/auth"
)

func TestGateCheck(t *testing.T) {
	gate, err := auth.NewGate("badstu", bcrypt.MinCost)
	require.NoError(t, err)

	tests := map[string]struct {
		secret string
		exp    bool
	}{
		"Correct secret":  {secret: "badstu", exp: true},
		"Wrong secret":    {secret: "badstue", exp: false},
		"Prefix":          {secret: "bad", exp: false},
		"Empty secret":    {secret: "", exp: false},
		"Different case":  {secret: "Badstu", exp: false},
		"Trailing spaces": {secret: "badstu ", exp: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, gate.Check(test.secret))
		})
	}
}

func TestNewGateRequiresSecret(t *testing.T) {
	_, err := auth.NewGate("", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestPersonCookie(t *testing.T) {
	hashKey, blockKey := auth.GenerateKeys()
	pc := auth.NewPersonCookie(hashKey, blockKey)

	info := auth.PersonInfo{
		FirstName: "Ola",
		LastName:  "Nordmann",
		Email:     "ola@example.com",
		Mobile:    "99999999",
		IsMember:  true,
		PartySize: 2,
	}

	rec := httptest.NewRecorder()
	require.NoError(t, pc.Save(rec, httptest.NewRequest(http.MethodGet, "/order", nil), info))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "person-info", cookies[0].Name)
	assert.Equal(t, 400*24*60*60, cookies[0].MaxAge)
	assert.NotContains(t, cookies[0].Value, "Nordmann")

	t.Run("Round trip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		got, ok := pc.Load(req)
		require.True(t, ok)
		assert.Equal(t, info, got)
	})

	t.Run("Missing cookie", func(t *testing.T) {
		_, ok := pc.Load(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, ok)
	})

	t.Run("Tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "person-info", Value: cookies[0].Value + "x"})
		_, ok := pc.Load(req)
		assert.False(t, ok)
	})

	t.Run("Other keys cannot read it", func(t *testing.T) {
		other := auth.NewPersonCookie(auth.GenerateKeys())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		_, ok := other.Load(req)
		assert.False(t, ok)
	})
}
