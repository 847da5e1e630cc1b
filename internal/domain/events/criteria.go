package events

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the format of the minDate/maxDate filters.
const DateLayout = "2006-01-02"

const DefaultCountry = "GB"

// Query keys understood by the backend's /events endpoint.
const (
	KeyCountry   = "country"
	KeyKeyword   = "keyword"
	KeyEventCode = "eventcode"
	KeyGenre     = "g"
	KeyMinDate   = "minDate"
	KeyMaxDate   = "maxDate"
	KeyLatitude  = "latitude"
	KeyLongitude = "longitude"
	KeyRadius    = "radius"
)

// FilterCriteria is the set of filters sent to the backend. Every field is optional;
// the location keyword is only enforced when criteria come from a FilterForm.
type FilterCriteria struct {
	Country    string       `json:"country,omitempty"`
	Location   string       `json:"location,omitempty"`
	EventCodes []string     `json:"eventcodes,omitempty"`
	Genres     []string     `json:"genres,omitempty"`
	Keyword    string       `json:"keyword,omitempty"`
	MinDate    string       `json:"min_date,omitempty"`
	MaxDate    string       `json:"max_date,omitempty"`
	Near       *Coordinates `json:"near,omitempty"`
	Radius     int          `json:"radius,omitempty"` // miles, only sent with Near
}

// Query serialises the criteria into the backend's query string keys.
func (c FilterCriteria) Query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}

	set(KeyCountry, c.Country)
	set(KeyKeyword, c.SearchKeyword())
	set(KeyEventCode, joinCodes(c.EventCodes))
	set(KeyGenre, joinCodes(c.Genres))
	set(KeyMinDate, c.MinDate)
	set(KeyMaxDate, c.MaxDate)

	if c.Near != nil && c.Radius > 0 {
		q.Set(KeyLatitude, formatFloat(c.Near.Latitude))
		q.Set(KeyLongitude, formatFloat(c.Near.Longitude))
		q.Set(KeyRadius, strconv.Itoa(c.Radius))
	}
	return q
}

// SearchKeyword is the backend's single search term: the free-text keyword when one was
// given, the location otherwise.
func (c FilterCriteria) SearchKeyword() string {
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		return kw
	}
	return strings.TrimSpace(c.Location)
}

// Clone returns a deep copy so callers can't alias the owner's slices.
func (c FilterCriteria) Clone() FilterCriteria {
	out := c
	out.EventCodes = slices.Clone(c.EventCodes)
	out.Genres = slices.Clone(c.Genres)
	if c.Near != nil {
		near := *c.Near
		out.Near = &near
	}
	return out
}

// joinCodes upper-cases, drops blanks and comma-joins.
func joinCodes(codes []string) string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ",")
}

// FilterForm is a filter submission as the user typed it.
type FilterForm struct {
	Location   string   `json:"location" validate:"required,max=100"`
	EventCodes []string `json:"eventcode,omitempty" validate:"max=20,dive,max=32"`
	Genres     []string `json:"genre,omitempty" validate:"max=50,dive,max=32"`
	Keyword    string   `json:"keyword,omitempty" validate:"max=200"`
	MinDate    string   `json:"minDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxDate    string   `json:"maxDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(dateRangeValidation, FilterForm{})
	return v
}

// dateRangeValidation rejects a form whose start date is after its end date.
func dateRangeValidation(sl validator.StructLevel) {
	form := sl.Current().Interface().(FilterForm)
	if form.MinDate == "" || form.MaxDate == "" {
		return
	}
	minDate, err1 := time.Parse(DateLayout, form.MinDate)
	maxDate, err2 := time.Parse(DateLayout, form.MaxDate)
	if err1 != nil || err2 != nil {
		// malformed dates are reported by the datetime tag
		return
	}
	if minDate.After(maxDate) {
		sl.ReportError(form.MinDate, "MinDate", "minDate", "daterange", "")
	}
}

func (f FilterForm) normalized() FilterForm {
	f.Location = strings.TrimSpace(f.Location)
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.MinDate = strings.TrimSpace(f.MinDate)
	f.MaxDate = strings.TrimSpace(f.MaxDate)
	return f
}

// Validate checks the form and returns a *ValidationError describing the first problem.
func (f FilterForm) Validate() error {
	err := validate.Struct(f.normalized())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	return toValidationError(verrs[0])
}

func toValidationError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if field == "Location" {
			return &ValidationError{Field: field, Message: "Location is required."}
		}
		return &ValidationError{Field: field, Message: field + " is required."}
	case "daterange":
		return &ValidationError{Field: field, Message: "Start date cannot be greater than end date."}
	case "datetime":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD format.", field)}
	case "max":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is too long.", field)}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is invalid.", field)}
	}
}

// Criteria validates the form and turns it into backend criteria for country.
func (f FilterForm) Criteria(country string) (FilterCriteria, error) {
	if err := f.Validate(); err != nil {
		return FilterCriteria{}, err
	}
	if country == "" {
		country = DefaultCountry
	}
	f = f.normalized()

	return FilterCriteria{
		Country:    country,
		Location:   f.Location,
		EventCodes: upper(f.EventCodes),
		Genres:     upper(f.Genres),
		Keyword:    f.Keyword,
		MinDate:    f.MinDate,
		MaxDate:    f.MaxDate,
	}, nil
}

func upper(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
