// internal/app/features/events/input.go
package events

import (
	"encoding/json"
	"strings"
	"time"

	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/domain/models"
)

type eventFields struct {
	Name        string `validate:"notblank,max=100" label:"Name"`
	Description string `validate:"max=2000" label:"Description"`
	Slots       int    `validate:"gte=0" label:"Slots"`
}

var editableEventFields = map[string]bool{
	"name":        true,
	"description": true,
	"eventDate":   true,
	"startTime":   true,
	"endTime":     true,
	"slots":       true,
}

// parseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// validClock reports whether s is empty or a 24-hour HH:MM time.
func validClock(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func validPlace(p *models.Place) bool {
	if p == nil {
		return true
	}
	p.FormattedAddress = htmlsanitize.PlainText(p.FormattedAddress)
	p.Name = htmlsanitize.PlainText(p.Name)
	if p.Geo == nil {
		return true
	}
	if p.Geo.Type == "" {
		p.Geo.Type = "Point"
	}
	if p.Geo.Type != "Point" || len(p.Geo.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Geo.Coordinates[0], p.Geo.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// parseEventUpdate applies the PATCH whitelist. Unknown keys and values of
// the wrong type reject the whole update.
func parseEventUpdate(raw map[string]json.RawMessage, current *models.Event) (eventstore.Update, string) {
	var upd eventstore.Update
	if len(raw) == 0 {
		return upd, MsgInvalidUpdates
	}
	for k := range raw {
		if !editableEventFields[k] {
			return upd, MsgInvalidUpdates
		}
	}

	str := func(key string) (*string, bool) {
		v, ok := raw[key]
		if !ok {
			return nil, true
		}
		var s string
		if json.Unmarshal(v, &s) != nil {
			return nil, false
		}
		return &s, true
	}

	fields := eventFields{Name: current.Name, Description: current.Description, Slots: current.Slots}
	if s, ok := str("name"); !ok {
		return upd, MsgInvalidUpdates
	} else if s != nil {
		v := normalize.Name(htmlsanitize.PlainText(*s))
		upd.Name, fields.Name = &v, v
	}
	if s, ok := str("description"); !ok {
		return upd, MsgInvalidUpdates
	} else if s != nil {
		v := htmlsanitize.Rich(*s)
		upd.Description, fields.Description = &v, v
	}
	if v, ok := raw["slots"]; ok {
		var n int
		if json.Unmarshal(v, &n) != nil {
			return upd, MsgInvalidUpdates
		}
		upd.Slots, fields.Slots = &n, n
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		return upd, res.First()
	}
	if upd.Slots != nil && *upd.Slots > 0 && *upd.Slots < len(current.Attendees) {
		return upd, MsgSlotsBelowCount
	}

	if s, ok := str("eventDate"); !ok {
		return upd, MsgInvalidUpdates
	} else if s != nil {
		t, ok := parseDate(*s)
		if !ok {
			return upd, MsgInvalidDate
		}
		upd.EventDate = &t
	}
	for _, key := range []string{"startTime", "endTime"} {
		s, ok := str(key)
		if !ok {
			return upd, MsgInvalidUpdates
		}
		if s == nil {
			continue
		}
		v := strings.TrimSpace(*s)
		if !validClock(v) {
			return upd, MsgInvalidTime
		}
		if key == "startTime" {
			upd.StartTime = &v
		} else {
			upd.EndTime = &v
		}
	}
	return upd, ""
}
