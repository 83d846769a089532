package web

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/badstu-booker/internal/auth"
	"github.com/example/badstu-booker/internal/domain/booking"
)

type loginData struct {
	Message string
	Invalid bool
}

func (s *Server) handleLoginPage(c *gin.Context) {
	data := loginData{}
	if c.Query("cause") == "invalid-password" {
		data.Message = "Feil passord"
	}
	c.HTML(http.StatusOK, "login.html", data)
}

func (s *Server) handleLogin(c *gin.Context) {
	password := c.PostForm(passwordKey)
	if !s.cfg.Secret.Check(password) {
		c.HTML(http.StatusUnauthorized, "login.html", loginData{Message: "Feil passord", Invalid: true})
		return
	}
	c.Redirect(http.StatusFound, "/?"+passwordKey+"="+url.QueryEscape(password))
}

type indexData struct {
	Password   string
	Places     []booking.Place
	Ukedager   []string
	PartySizes []int
	MinDate    string

	Place        booking.Place
	Date         string
	RelativeDate string
	Time         string

	Person     auth.PersonInfo
	HasPerson  bool
	Invitation string
	ShareTitle string
	ShareText  string

	Errors map[string]string
}

func (s *Server) indexData(c *gin.Context) indexData {
	q := c.Request.URL.Query()
	data := indexData{
		Password:   q.Get(passwordKey),
		Places:     booking.Places(),
		Ukedager:   booking.Ukedager(),
		PartySizes: []int{1, 2, 3, 4},
		MinDate:    s.cfg.Now().In(s.cfg.Location).Format("2006-01-02"),
		Place:      booking.Place(q.Get("sted")),
		Time:       q.Get("time"),
		Person:     auth.PersonInfo{IsMember: true, PartySize: 1},
	}
	if date := q.Get("date"); strings.HasPrefix(date, booking.RelativePrefix) {
		data.RelativeDate = date
	} else {
		data.Date = date
	}
	if p, ok := s.personInfo(c); ok {
		data.Person, data.HasPerson = p, true
	}
	if sh, ok := shareFromQuery(q); ok {
		data.Invitation = sh.Invitation()
		data.ShareTitle = sh.Title()
		data.ShareText = sh.Text()
	}
	return data
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.indexData(c))
}

type orderData struct {
	Summary   string
	StreamURL string
	EditLink  string
	ShareLink string
	ShareText string
	Mock      bool
}

func (s *Server) handleOrderPage(c *gin.Context) {
	req, err := s.parseOrder(c)
	if err != nil {
		data := s.indexData(c)
		data.Errors = booking.FieldErrors(err)
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	err = s.cfg.Cookies.Save(c.Writer, c.Request, auth.PersonInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
		IsMember:  req.IsMember,
		PartySize: req.PartySize,
	})
	if err != nil {
		s.cfg.Logger.Warningf("could not save person info: %s", err)
	}

	rawQuery := c.Request.URL.RawQuery
	sh := share{Password: req.Secret, Date: req.Date, Time: req.Time, Place: req.Place}
	c.HTML(http.StatusOK, "order.html", orderData{
		Summary:   booking.FormatTimeAndPlace(req.Place, req.Date, req.Time),
		StreamURL: "/api/order?" + rawQuery,
		EditLink:  "/?" + rawQuery,
		ShareLink: s.cfg.BaseURL + sh.Link(),
		ShareText: sh.Text(),
		Mock:      req.UseMock,
	})
}

// handleOrderStream runs one attempt and streams its events as server-sent events.
// The attempt is bound to the request, a disconnecting client cancels it.
func (s *Server) handleOrderStream(c *gin.Context) {
	req, err := s.parseOrder(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": booking.FieldErrors(err),
		})
		return
	}

	attempt := s.cfg.Orders.Start(c.Request.Context(), req)
	defer attempt.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-attempt.Events()
		if !ok {
			return false
		}
		c.SSEvent(string(ev.Kind), ev.Data)
		return true
	})
}
