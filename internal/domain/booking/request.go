package booking

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
)

// OrderRequest describes what to book and who is booking. It is built once from validated
// input and passed by value; nothing downstream modifies it.
type OrderRequest struct {
	Place Place `json:"sted" validate:"required,place"`
	// Date is always an absolute ISO date.
	Date string `json:"date" validate:"required,isodate"`
	// RelativeDate keeps the "neste-<ukedag>" expression the date was resolved from, for display.
	RelativeDate string `json:"relativeDate,omitempty"`
	Time         string `json:"time" validate:"required,timetoken"`
	PartySize    int    `json:"antall" validate:"min=1,max=4"`
	IsMember     bool   `json:"isMember"`

	FirstName string `json:"fornavn" validate:"required"`
	LastName  string `json:"etternavn" validate:"required"`
	Email     string `json:"epost" validate:"required,email"`
	Mobile    string `json:"mobil" validate:"required"`

	UseMock bool   `json:"useMock"`
	Debug   bool   `json:"debug"`
	Secret  string `json:"-" validate:"required"`
}

var timeTokenRe = regexp.MustCompile(`^\d{1,2}(\.\d+)?$`)

var validate = newValidator()

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return "password"
		}
		return name
	})
	_ = v.RegisterValidation("place", func(fl validatorv10.FieldLevel) bool {
		return Place(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("isodate", func(fl validatorv10.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("timetoken", func(fl validatorv10.FieldLevel) bool {
		return timeTokenRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks every field. Validation failures are returned as
// validator.ValidationErrors so callers can report them per field.
func (r OrderRequest) Validate() error {
	return validate.Struct(r)
}

// FieldErrors flattens a Validate error into field name -> failed rule.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}

// Summary is a JSON rendering of the request without the secret.
func (r OrderRequest) Summary() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (r OrderRequest) String() string { return r.Summary() }

// OrderInput is the raw, unvalidated form of an order as it arrives from a transport.
type OrderInput struct {
	Place     string
	Date      string // ISO date or "neste-<ukedag>".
	Time      string
	PartySize int
	IsMember  bool
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	UseMock   bool
	Debug     bool
	Secret    string
}

// NewOrderRequest resolves relative dates against now and validates the result.
// An unresolvable date is reported as a field error on "date".
func NewOrderRequest(in OrderInput, now time.Time) (OrderRequest, error) {
	r := OrderRequest{
		Place:     Place(strings.TrimSpace(in.Place)),
		Time:      strings.TrimSpace(in.Time),
		PartySize: in.PartySize,
		IsMember:  in.IsMember,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Mobile:    strings.TrimSpace(in.Mobile),
		UseMock:   in.UseMock,
		Debug:     in.Debug,
		Secret:    in.Secret,
	}
	if date, rel, err := ResolveDate(in.Date, now); err == nil {
		r.Date, r.RelativeDate = date, rel
	} else {
		// Keep the raw value so validation reports it.
		r.Date = in.Date
	}
	if err := r.Validate(); err != nil {
		return OrderRequest{}, err
	}
	return r, nil
}
