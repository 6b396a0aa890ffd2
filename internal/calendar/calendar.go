// Package calendar reads appointments from an external ICS feed.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/cache"
)

const (
	cacheKey     = "calendar:ics"
	maxFeedBytes = 10 << 20
)

type Event struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Begin       time.Time `json:"begin"`
	End         time.Time `json:"end,omitempty"`
	AllDay      bool      `json:"all_day"`
}

type Service struct {
	url    string
	client *http.Client
	cache  *cache.TTL
	loc    *time.Location
	now    func() time.Time
}

// New builds the feed reader. An empty url yields a service that always
// returns no events.
func New(url string, timeout time.Duration, c *cache.TTL, loc *time.Location) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cache:  c,
		loc:    loc,
		now:    time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) fetch(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(cacheKey); ok {
			return b, nil
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics feed status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(cacheKey, b)
	}
	return b, nil
}

// Events returns every event in the feed sorted by local begin time.
// Fetch and parse failures are logged and produce an empty list.
func (s *Service) Events(ctx context.Context) []Event {
	if s == nil || s.url == "" {
		return []Event{}
	}
	raw, err := s.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[calendar] fetch failed")
		return []Event{}
	}
	events, err := Parse(string(raw), s.loc)
	if err != nil {
		log.Warn().Err(err).Msg("[calendar] parse failed")
		return []Event{}
	}
	return events
}

// Filtered returns the events of the named window; see Window.
func (s *Service) Filtered(ctx context.Context, filter string) []Event {
	start, end := Window(filter, s.Now())
	return Between(s.Events(ctx), start, end)
}

func (s *Service) Today(ctx context.Context) []Event {
	start, end := dayBounds(s.Now())
	return Between(s.Events(ctx), start, end)
}

// TodayPending returns today's events that have not started yet.
func (s *Service) TodayPending(ctx context.Context) []Event {
	now := s.Now()
	start, end := dayBounds(now)
	out := []Event{}
	for _, e := range Between(s.Events(ctx), start, end) {
		if e.Begin.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming returns at most n events beginning after now.
func (s *Service) Upcoming(ctx context.Context, n int) []Event {
	now := s.Now()
	out := []Event{}
	for _, e := range s.Events(ctx) {
		if len(out) >= n {
			break
		}
		if e.Begin.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// Parse reads an ICS document. Begin and End are expressed in loc.
func Parse(raw string, loc *time.Location) ([]Event, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	out := []Event{}
	for _, ve := range cal.Events() {
		begin, allDay, err := propTime(ve.GetProperty(ics.ComponentPropertyDtStart))
		if err != nil {
			log.Debug().Err(err).Str("uid", ve.Id()).Msg("[calendar] skipping event without valid DTSTART")
			continue
		}
		e := Event{
			UID:         ve.Id(),
			Summary:     propValue(ve, ics.ComponentPropertySummary),
			Description: propValue(ve, ics.ComponentPropertyDescription),
			Location:    propValue(ve, ics.ComponentPropertyLocation),
			Begin:       begin.In(loc),
			AllDay:      allDay,
		}
		if end, _, err := propTime(ve.GetProperty(ics.ComponentPropertyDtEnd)); err == nil {
			e.End = end.In(loc)
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Begin.Before(out[j].Begin) })
	return out, nil
}

func propValue(ve *ics.VEvent, p ics.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return unescapeText(prop.Value)
	}
	return ""
}

func unescapeText(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}

// propTime parses a DATE or DATE-TIME value. Floating times are UTC, TZID is
// honoured and all-day dates sit at midnight UTC.
func propTime(prop *ics.IANAProperty) (time.Time, bool, error) {
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property")
	}
	val := strings.TrimSpace(prop.Value)
	isDate := len(val) == 8
	if vt, ok := prop.ICalParameters["VALUE"]; ok && len(vt) > 0 && strings.EqualFold(vt[0], "DATE") {
		isDate = true
	}
	if isDate {
		t, err := time.ParseInLocation("20060102", val, time.UTC)
		return t, true, err
	}
	if strings.HasSuffix(val, "Z") {
		t, err := time.ParseInLocation("20060102T150405Z", val, time.UTC)
		return t, false, err
	}
	loc := time.UTC
	if tz, ok := prop.ICalParameters["TZID"]; ok && len(tz) > 0 {
		if l, err := time.LoadLocation(strings.Trim(tz[0], `"`)); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", val, loc)
	return t, false, err
}
