package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/domain/booking"
)

const passwordKey = "password"

// queryBool accepts both checkbox ("on") and explicit ("true") values.
func queryBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true
	}
	return false
}

func orderInput(q url.Values) booking.OrderInput {
	antall := 1
	if v := strings.TrimSpace(q.Get("antall")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		antall = n
	}
	return booking.OrderInput{
		Place:     q.Get("sted"),
		Date:      q.Get("date"),
		Time:      q.Get("time"),
		PartySize: antall,
		IsMember:  queryBool(q.Get("isMember")),
		FirstName: q.Get("fornavn"),
		LastName:  q.Get("etternavn"),
		Email:     q.Get("epost"),
		Mobile:    q.Get("mobil"),
		UseMock:   queryBool(q.Get("useMock")),
		Debug:     queryBool(q.Get("debug")),
		Secret:    q.Get(passwordKey),
	}
}

func (s *Server) parseOrder(c *gin.Context) (booking.OrderRequest, error) {
	now := s.cfg.Now().In(s.cfg.Location)
	return booking.NewOrderRequest(orderInput(c.Request.URL.Query()), now)
}

// personInfo prefers details given in the query over the remembered cookie.
func (s *Server) personInfo(c *gin.Context) (auth.PersonInfo, bool) {
	q := c.Request.URL.Query()
	if q.Get("fornavn") != "" {
		in := orderInput(q)
		return auth.PersonInfo{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Mobile:    in.Mobile,
			IsMember:  in.IsMember,
			PartySize: in.PartySize,
		}, true
	}
	return s.cfg.Cookies.Load(c.Request)
}

// share is what an invitation link carries.
type share struct {
	Password string
	Date     string
	Time     string
	Place    booking.Place
}

func (sh share) Link() string {
	return "/?" + url.Values{
		passwordKey: {sh.Password},
		"date":      {sh.Date},
		"time":      {sh.Time},
		"sted":      {string(sh.Place)},
		"share":     {"true"},
	}.Encode()
}

func (sh share) Title() string {
	return "Badstu " + sh.Place.Title()
}

func (sh share) Text() string {
	return "Bli med i badstuen " + booking.FormatTimeAndPlace(sh.Place, sh.Date, sh.Time) + " 🧖"
}

func (sh share) Invitation() string {
	return "🎉 Du har blitt invitert med i badstuen " + booking.FormatTimeAndPlace(sh.Place, sh.Date, sh.Time) + ". Bli med da vell 🧖"
}

// shareFromQuery returns the invitation of a share link, if the query is one.
func shareFromQuery(q url.Values) (share, bool) {
	if !queryBool(q.Get("share")) {
		return share{}, false
	}
	sh := share{
		Password: q.Get(passwordKey),
		Date:     q.Get("date"),
		Time:     q.Get("time"),
		Place:    booking.Place(q.Get("sted")),
	}
	if !sh.Place.Valid() || sh.Date == "" || sh.Time == "" {
		return share{}, false
	}
	return sh, true
}
