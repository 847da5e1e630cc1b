package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFilterFormValidate(t *testing.T) {
	tests := []struct {
		name    string
		form    FilterForm
		wantErr string
	}{
		{name: "location only", form: FilterForm{Location: "London"}},
		{name: "ordered dates", form: FilterForm{Location: "London", MinDate: "2024-05-01", MaxDate: "2024-05-02"}},
		{name: "equal dates", form: FilterForm{Location: "London", MinDate: "2024-05-01", MaxDate: "2024-05-01"}},
		{name: "only min date", form: FilterForm{Location: "London", MinDate: "2024-05-01"}},
		{name: "only max date", form: FilterForm{Location: "London", MaxDate: "2024-05-01"}},
		{name: "missing location", form: FilterForm{Keyword: "jazz"}, wantErr: "Location is required."},
		{name: "blank location", form: FilterForm{Location: "   "}, wantErr: "Location is required."},
		{name: "reversed dates", form: FilterForm{Location: "Leeds", MinDate: "2024-06-02", MaxDate: "2024-06-01"}, wantErr: "Start date cannot be greater than end date."},
		{name: "bad date", form: FilterForm{Location: "Leeds", MinDate: "02/06/2024"}, wantErr: "MinDate must be a date in YYYY-MM-DD format."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if verr.Message != tt.wantErr {
				t.Errorf("expected message %q, got %q", tt.wantErr, verr.Message)
			}
		})
	}
}

func TestFilterFormCriteria(t *testing.T) {
	form := FilterForm{
		Location:   " London ",
		EventCodes: []string{"live", "club", " "},
		Genres:     []string{"rock"},
		Keyword:    "jazz",
		MinDate:    "2024-05-01",
		MaxDate:    "2024-05-31",
	}

	c, err := form.Criteria("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := c.Query()
	want := map[string]string{
		KeyCountry:   "GB",
		KeyKeyword:   "jazz",
		KeyEventCode: "LIVE,CLUB",
		KeyGenre:     "ROCK",
		KeyMinDate:   "2024-05-01",
		KeyMaxDate:   "2024-05-31",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("query %s: expected %q, got %q", k, v, got)
		}
	}
	if q.Has(KeyLatitude) || q.Has(KeyRadius) {
		t.Errorf("proximity keys should be absent, got %v", q)
	}
}

func TestFilterCriteriaQueryOmitsEmpty(t *testing.T) {
	q := FilterCriteria{Location: "York"}.Query()
	if len(q) != 1 || q.Get(KeyKeyword) != "York" {
		t.Fatalf("expected only keyword=York, got %v", q)
	}
}

func TestSearchKeywordPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     string
	}{
		{name: "location only", criteria: FilterCriteria{Location: "London"}, want: "London"},
		{name: "keyword replaces location", criteria: FilterCriteria{Location: "London", Keyword: "jazz"}, want: "jazz"},
		{name: "blank keyword falls back", criteria: FilterCriteria{Location: " London ", Keyword: "   "}, want: "London"},
		{name: "keyword only", criteria: FilterCriteria{Keyword: "techno"}, want: "techno"},
		{name: "neither", criteria: FilterCriteria{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criteria.Query().Get(KeyKeyword); got != tt.want {
				t.Errorf("expected keyword %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFilterCriteriaQueryProximity(t *testing.T) {
	c := FilterCriteria{Country: "GB", Near: &Coordinates{Latitude: 53.8, Longitude: -1.55}, Radius: 10}
	q := c.Query()
	if q.Get(KeyLatitude) != "53.8" || q.Get(KeyLongitude) != "-1.55" || q.Get(KeyRadius) != "10" {
		t.Fatalf("unexpected proximity query: %v", q)
	}

	c.Radius = 0
	if c.Query().Has(KeyLatitude) {
		t.Fatal("proximity keys must not be sent without a radius")
	}
}

func TestFilterCriteriaClone(t *testing.T) {
	c := FilterCriteria{EventCodes: []string{"LIVE"}, Near: &Coordinates{Latitude: 1}}
	cp := c.Clone()
	cp.EventCodes[0] = "CLUB"
	cp.Near.Latitude = 2
	if c.EventCodes[0] != "LIVE" || c.Near.Latitude != 1 {
		t.Fatal("clone aliases the original")
	}
}

func TestRawEventDecodesLooseFields(t *testing.T) {
	body := `{"id": 12345, "eventname": "Gig", "entryprice": 10.5, "minage": "18",
		"venue": {"name": "Hall", "country": "GB", "postcode_lookup": "LS1", "latitude": 53.8, "longitude": -1.5}}`

	var ev RawEvent
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ID != "12345" || ev.EntryPrice != "10.5" || ev.MinAge != "18" {
		t.Errorf("unexpected loose fields: %+v", ev)
	}
	if ev.Venue.DisplayPostcode() != "LS1" {
		t.Errorf("expected postcode LS1, got %q", ev.Venue.DisplayPostcode())
	}
	if DetailRoute(ev.ID) != "/event-details.html?eventId=12345" {
		t.Errorf("unexpected detail route %q", DetailRoute(ev.ID))
	}
}
