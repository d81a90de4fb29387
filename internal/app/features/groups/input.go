// internal/app/features/groups/input.go
package groups

import (
	"encoding/json"
	"strings"

	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/domain/models"
)

// groupFields are the user-editable text fields with their limits.
type groupFields struct {
	Title       string `validate:"notblank,max=50" label:"Title"`
	Tagline     string `validate:"max=100" label:"Tagline"`
	Description string `validate:"max=500" label:"Description"`
}

// editableGroupFields is the whitelist for PATCH /group/{group}/edit.
var editableGroupFields = map[string]bool{
	"title":       true,
	"tagline":     true,
	"description": true,
	"location":    true,
	"topics":      true,
	"isPrivate":   true,
}

// cleanPlace sanitizes a place and checks its point. It reports false when the
// coordinates are unusable.
func cleanPlace(p *models.Place) bool {
	if p == nil {
		return true
	}
	p.PlaceID = strings.TrimSpace(p.PlaceID)
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

// cleanTopics trims and de-duplicates topic tags, keeping first-seen order.
func cleanTopics(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = htmlsanitize.PlainText(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// parseGroupUpdate turns a raw JSON object into a groupstore.Update,
// rejecting keys outside the whitelist. The string result is the client
// message on failure.
func parseGroupUpdate(raw map[string]json.RawMessage, current *models.Group) (groupstore.Update, string) {
	var upd groupstore.Update
	if len(raw) == 0 {
		return upd, MsgInvalidUpdates
	}
	for k := range raw {
		if !editableGroupFields[k] {
			return upd, MsgInvalidUpdates
		}
	}

	var ok bool
	if upd.Title, ok = readString(raw, "title", func(s string) string { return normalize.Name(htmlsanitize.PlainText(s)) }); !ok {
		return upd, MsgInvalidUpdates
	}
	if upd.Tagline, ok = readString(raw, "tagline", htmlsanitize.PlainText); !ok {
		return upd, MsgInvalidUpdates
	}
	if upd.Description, ok = readString(raw, "description", htmlsanitize.Rich); !ok {
		return upd, MsgInvalidUpdates
	}

	fields := groupFields{Title: current.Title, Tagline: current.Tagline, Description: current.Description}
	if upd.Title != nil {
		fields.Title = *upd.Title
	}
	if upd.Tagline != nil {
		fields.Tagline = *upd.Tagline
	}
	if upd.Description != nil {
		fields.Description = *upd.Description
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		return upd, res.First()
	}

	if v, ok := raw["location"]; ok {
		var p models.Place
		if json.Unmarshal(v, &p) != nil || !cleanPlace(&p) {
			return upd, MsgInvalidLocation
		}
		upd.Location = &p
	}
	if v, ok := raw["topics"]; ok {
		var topics []string
		if json.Unmarshal(v, &topics) != nil {
			return upd, MsgInvalidUpdates
		}
		topics = cleanTopics(topics)
		upd.Topics = &topics
	}
	if v, ok := raw["isPrivate"]; ok {
		var b bool
		if json.Unmarshal(v, &b) != nil {
			return upd, MsgInvalidUpdates
		}
		upd.IsPrivate = &b
	}
	return upd, ""
}

// readString decodes raw[key] as a string and cleans it. It returns nil when
// the key is absent and false when the value is not a string.
func readString(raw map[string]json.RawMessage, key string, clean func(string) string) (*string, bool) {
	v, present := raw[key]
	if !present {
		return nil, true
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return nil, false
	}
	s = clean(s)
	return &s, true
}
