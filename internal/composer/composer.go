// Package composer turns change events into channel-agnostic notification
// text. It never sees subscribers or channels; senders apply their own
// formatting on top of the {title, body} pair produced here.
package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhrabal/linewatch/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// Compose builds the notification content for one event.
func Compose(event model.ChangeEvent) model.NotificationContent {
	switch event.Kind {
	case model.EventUpdated:
		return composeUpdated(event)
	case model.EventClosed:
		return composeClosed(event)
	default:
		return composeCreated(event)
	}
}

func composeCreated(event model.ChangeEvent) model.NotificationContent {
	rec := event.Record
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %s\n", rec.Message)
	fmt.Fprintf(&b, "Start time: %s\n", formatTime(rec.StartTime))
	fmt.Fprintf(&b, "Lines: %s\n", strings.Join(rec.Lines, ", "))
	if rec.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", rec.URL)
	}
	return model.NotificationContent{
		Title: fmt.Sprintf("New disruption on lines %s", strings.Join(rec.Lines, ", ")),
		Body:  b.String(),
	}
}

func composeUpdated(event model.ChangeEvent) model.NotificationContent {
	rec := event.Record
	var b strings.Builder

	if event.Previous != nil {
		changes := diffChanges(*event.Previous, rec)
		if len(changes) > 0 {
			b.WriteString("Changed:\n")
			for _, c := range changes {
				fmt.Fprintf(&b, "  %s\n", c)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Message: %s\n", rec.Message)
	fmt.Fprintf(&b, "Start time: %s\n", formatTime(rec.StartTime))
	if rec.EndTime != nil {
		fmt.Fprintf(&b, "End time: %s\n", formatTime(rec.EndTime))
	}
	fmt.Fprintf(&b, "Lines: %s\n", strings.Join(rec.Lines, ", "))
	if rec.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", rec.URL)
	}
	return model.NotificationContent{
		Title: fmt.Sprintf("Disruption update on lines %s", strings.Join(rec.Lines, ", ")),
		Body:  b.String(),
	}
}

func composeClosed(event model.ChangeEvent) model.NotificationContent {
	rec := event.Record
	var b strings.Builder
	fmt.Fprintf(&b, "The disruption has been resolved.\n")
	fmt.Fprintf(&b, "Original message: %s\n", rec.Message)
	fmt.Fprintf(&b, "Ended: %s\n", formatTime(rec.EndTime))
	if rec.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", rec.URL)
	}
	return model.NotificationContent{
		Title: fmt.Sprintf("Disruption resolved on lines %s", strings.Join(rec.Lines, ", ")),
		Body:  b.String(),
	}
}

// diffChanges lists the content fields that differ between the previous and
// the current record, old value first.
func diffChanges(prev, cur model.Disruption) []string {
	var out []string
	if prev.Message != cur.Message {
		out = append(out, fmt.Sprintf("message: %q -> %q", prev.Message, cur.Message))
	}
	if !sameLines(prev.Lines, cur.Lines) {
		out = append(out, fmt.Sprintf("lines: %s -> %s",
			strings.Join(prev.Lines, ","), strings.Join(cur.Lines, ",")))
	}
	if !sameTime(prev.StartTime, cur.StartTime) {
		out = append(out, fmt.Sprintf("start time: %s -> %s",
			formatTime(prev.StartTime), formatTime(cur.StartTime)))
	}
	if !sameTime(prev.EndTime, cur.EndTime) {
		out = append(out, fmt.Sprintf("end time: %s -> %s",
			formatTime(prev.EndTime), formatTime(cur.EndTime)))
	}
	if prev.Active != cur.Active {
		out = append(out, fmt.Sprintf("active: %t -> %t", prev.Active, cur.Active))
	}
	return out
}

func sameLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format(timeLayout)
}
