package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

// Gate checks the shared secret that gates every order attempt. Only the bcrypt hash of
// the secret is kept, and comparison time does not depend on where the inputs differ.
type Gate struct {
	hash []byte
}

// NewGate hashes secret with the given bcrypt cost (bcrypt.DefaultCost when zero).
func NewGate(secret string, cost int) (*Gate, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret is required")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("could not hash secret: %w", err)
	}
	return &Gate{hash: hash}, nil
}

func (g *Gate) Check(secret string) bool {
	if secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(secret)) == nil
}

// PersonInfo is what the booking form remembers between visits.
type PersonInfo struct {
	FirstName string `json:"fornavn"`
	LastName  string `json:"etternavn"`
	Email     string `json:"epost"`
	Mobile    string `json:"mobil"`
	IsMember  bool   `json:"isMember"`
	PartySize int    `json:"antall"`
}

const (
	personCookieName   = "person-info"
	personCookieMaxAge = 400 * 24 * time.Hour
)

// PersonCookie stores PersonInfo in a signed and encrypted cookie.
type PersonCookie struct {
	sc *securecookie.SecureCookie
}

func NewPersonCookie(hashKey, blockKey []byte) *PersonCookie {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(personCookieMaxAge.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &PersonCookie{sc: sc}
}

func (p *PersonCookie) Save(w http.ResponseWriter, r *http.Request, info PersonInfo) error {
	encoded, err := p.sc.Encode(personCookieName, info)
	if err != nil {
		return fmt.Errorf("could not encode person info: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     personCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(personCookieMaxAge.Seconds()),
	})
	return nil
}

// Load returns the stored info. A missing or tampered cookie yields false.
func (p *PersonCookie) Load(r *http.Request) (PersonInfo, bool) {
	c, err := r.Cookie(personCookieName)
	if err != nil {
		return PersonInfo{}, false
	}
	var info PersonInfo
	if err := p.sc.Decode(personCookieName, c.Value, &info); err != nil {
		return PersonInfo{}, false
	}
	return info, true
}

// GenerateKeys returns fresh random hash and block keys for the person cookie.
func GenerateKeys() (hashKey, blockKey []byte) {
	return securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)
}
