package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata"

	"hostly/internal/models"

	ics "github.com/arran4/golang-ical"
)

var ErrInvalidCalendar = errors.New("invalid calendar")

const (
	dateLayout          = "20060102"
	dateTimeLayout      = "20060102T150405"
	dateTimeLayoutUTC   = "20060102T150405Z"
	SkipReasonNoUID     = "missing uid"
	SkipReasonNoStart   = "missing start"
	SkipReasonBadDate   = "invalid date"
	SkipReasonBadRange  = "end before start"
	SkipReasonBlocked   = "blocked"
	SkipReasonCancelled = "cancelled"
	SkipReasonDuplicate = "duplicate uid"
)

// Event is a VEVENT normalized for booking import.
type Event struct {
	UID         string
	Summary     string
	Description string
	Status      string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

type SkippedEvent struct {
	UID    string
	Reason string
}

type ParseResult struct {
	Platform models.Platform
	Events   []Event
	Skipped  []SkippedEvent
}

// Parse reads every VEVENT from an iCalendar feed. Events that cannot be
// imported are reported in Skipped rather than failing the whole feed.
func Parse(r io.Reader, platform models.Platform) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	if !bytes.Contains(bytes.ToUpper(data), []byte("BEGIN:VCALENDAR")) {
		return nil, fmt.Errorf("%w: missing VCALENDAR", ErrInvalidCalendar)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	result := &ParseResult{Platform: platform}
	for _, vevent := range cal.Events() {
		event, reason := toEvent(vevent)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedEvent{UID: event.UID, Reason: reason})
			continue
		}
		result.Events = append(result.Events, event)
	}

	return result, nil
}

func toEvent(vevent *ics.VEvent) (Event, string) {
	event := Event{
		UID:         propertyValue(vevent, ics.ComponentPropertyUniqueId),
		Summary:     propertyValue(vevent, ics.ComponentPropertySummary),
		Description: propertyValue(vevent, ics.ComponentPropertyDescription),
		Status:      strings.ToUpper(propertyValue(vevent, ics.ComponentPropertyStatus)),
	}

	if event.UID == "" {
		return event, SkipReasonNoUID
	}

	startProp := vevent.GetProperty(ics.ComponentPropertyDtStart)
	if startProp == nil || strings.TrimSpace(startProp.Value) == "" {
		return event, SkipReasonNoStart
	}

	start, allDay, err := parseTimeValue(startProp.Value, startProp.ICalParameters)
	if err != nil {
		return event, SkipReasonBadDate
	}
	event.Start = start
	event.AllDay = allDay

	endProp := vevent.GetProperty(ics.ComponentPropertyDtEnd)
	if endProp == nil || strings.TrimSpace(endProp.Value) == "" {
		event.End = start.AddDate(0, 0, 1)
		return event, ""
	}

	end, _, err := parseTimeValue(endProp.Value, endProp.ICalParameters)
	if err != nil {
		return event, SkipReasonBadDate
	}
	if end.Before(start) {
		return event, SkipReasonBadRange
	}
	event.End = end

	return event, ""
}

func propertyValue(vevent *ics.VEvent, property ics.ComponentProperty) string {
	prop := vevent.GetProperty(property)
	if prop == nil {
		return ""
	}
	return strings.TrimSpace(prop.Value)
}

// parseTimeValue handles DATE, UTC DATE-TIME, floating DATE-TIME and TZID
// qualified DATE-TIME values. Unknown TZIDs fall back to UTC.
func parseTimeValue(value string, params map[string][]string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)

	if strings.EqualFold(paramValue(params, "VALUE"), "DATE") || len(value) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, value, time.UTC)
		return t, true, err
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(dateTimeLayoutUTC, value)
		return t, false, err
	}

	location := time.UTC
	if tzid := paramValue(params, "TZID"); tzid != "" {
		if loaded, err := time.LoadLocation(strings.Trim(tzid, `"`)); err == nil {
			location = loaded
		}
	}

	t, err := time.ParseInLocation(dateTimeLayout, value, location)
	return t, false, err
}

func paramValue(params map[string][]string, key string) string {
	for k, values := range params {
		if strings.EqualFold(k, key) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
