package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "timetable/internal/log"
	"timetable/internal/model"
)

// ImportOptions controls how an ICS calendar is folded into a weekly grid.
type ImportOptions struct {
	// Slots is N, the number of periods per day.
	Slots int
	// Location is the display timezone. Nil means time.Local.
	Location *time.Location
	// Now selects the week (Monday 00:00 to next Monday 00:00) to import.
	Now time.Time
}

// classEvent is the subset of a VEVENT the grid needs.
type classEvent struct {
	uid      string
	name     string
	location string
	start    time.Time
	allDay   bool
	rrule    string
	exDates  []time.Time
}

type occurrence struct {
	day      int
	minute   int
	name     string
	location string
}

// ImportICS parses an ICS payload and places each timed occurrence falling
// in the selected week into the grid. The slot index of an occurrence is
// the rank of its start time among the distinct start times of that day.
// All-day events are not classes and are skipped.
func ImportICS(body []byte, opts ImportOptions) (*Week, error) {
	if len(body) == 0 {
		return nil, errors.New("schedule: empty ICS body")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("schedule: parse ics: %w", err)
	}

	now := opts.Now.In(opts.Location)
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, opts.Location).
		AddDate(0, 0, -Today(now))
	weekEnd := weekStart.AddDate(0, 0, model.Days)

	var occs []occurrence
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("schedule: vevent skipped", "err", perr)
			continue
		}
		if ev.allDay {
			continue
		}
		for _, t := range expand(ev, weekStart, weekEnd) {
			local := t.In(opts.Location)
			occs = append(occs, occurrence{
				day:      Today(local),
				minute:   local.Hour()*60 + local.Minute(),
				name:     ev.name,
				location: ev.location,
			})
		}
	}

	return placeOccurrences(occs, opts.Slots), nil
}

func placeOccurrences(occs []occurrence, n int) *Week {
	w := NewWeek(n)

	var starts [model.Days][]int
	for _, o := range occs {
		starts[o.day] = append(starts[o.day], o.minute)
	}
	for d := range starts {
		sort.Ints(starts[d])
		starts[d] = uniqueInts(starts[d])
	}

	for _, o := range occs {
		idx := sort.SearchInts(starts[o.day], o.minute)
		if idx >= n {
			appLog.Warn("schedule: class dropped, day has more periods than slots",
				"day", o.day, "name", o.name, "slots", n)
			continue
		}
		cur, _ := w.Slot(o.day, idx)
		if !cur.Empty() {
			// Two classes at the same time; first one wins.
			continue
		}
		_ = w.Set(o.day, idx, model.Slot{Name: o.name, Location: o.location})
	}
	return w
}

func uniqueInts(s []int) []int {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func parseVEvent(ve *ical.VEvent) (classEvent, error) {
	var out classEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.name = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %s: %w", out.uid, err)
	}
	out.start = start

	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.allDay = true
		}
		if !strings.Contains(dtStart.Value, "T") {
			out.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, start.Location()); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	return out, nil
}

// expand returns the start times of ev inside [from, to).
func expand(ev classEvent, from, to time.Time) []time.Time {
	if ev.rrule == "" {
		if !ev.start.Before(from) && ev.start.Before(to) {
			return []time.Time{ev.start}
		}
		return nil
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		appLog.Warn("schedule: bad RRULE", "uid", ev.uid, "rrule", ev.rrule, "err", err)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	loc := ev.start.Location()
	var out []time.Time
	for _, t := range set.Between(from.In(loc), to.In(loc), true) {
		if t.Before(to) {
			out = append(out, t)
		}
	}
	return out
}

// parseICSTime handles the DATE / DATE-TIME / UTC forms found in EXDATE.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
