package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhrabal/linewatch/internal/model"
)

var start = time.Date(2026, 8, 31, 8, 30, 0, 0, time.UTC)

func TestComposeCreated(t *testing.T) {
	content := Compose(model.ChangeEvent{
		Kind: model.EventCreated,
		Record: model.Disruption{
			ID:        "A",
			Active:    true,
			StartTime: &start,
			Lines:     []string{"1", "7"},
			Message:   "tram derailment",
			URL:       "https://example.org/?id=A",
		},
	})

	assert.Equal(t, "New disruption on lines 1, 7", content.Title)
	assert.Contains(t, content.Body, "tram derailment")
	assert.Contains(t, content.Body, "2026-08-31 08:30")
	assert.Contains(t, content.Body, "https://example.org/?id=A")
}

func TestComposeCreatedUnknownStart(t *testing.T) {
	content := Compose(model.ChangeEvent{
		Kind:   model.EventCreated,
		Record: model.Disruption{ID: "A", Lines: []string{"1"}, Message: "m"},
	})

	assert.Contains(t, content.Body, "Start time: unknown")
}

func TestComposeUpdatedListsChanges(t *testing.T) {
	prev := model.Disruption{ID: "A", Active: true, Lines: []string{"1"}, Message: "delay"}
	content := Compose(model.ChangeEvent{
		Kind:     model.EventUpdated,
		Record:   model.Disruption{ID: "A", Active: true, Lines: []string{"1", "2"}, Message: "severe delay"},
		Previous: &prev,
	})

	assert.Equal(t, "Disruption update on lines 1, 2", content.Title)
	assert.Contains(t, content.Body, `message: "delay" -> "severe delay"`)
	assert.Contains(t, content.Body, "lines: 1 -> 1,2")
	assert.Contains(t, content.Body, "Message: severe delay")
}

func TestComposeClosed(t *testing.T) {
	end := start.Add(2 * time.Hour)
	prev := model.Disruption{ID: "A", Active: true, Lines: []string{"1"}, Message: "delay"}
	content := Compose(model.ChangeEvent{
		Kind: model.EventClosed,
		Record: model.Disruption{
			ID: "A", Active: false, EndTime: &end, Lines: []string{"1"}, Message: "delay",
		},
		Previous: &prev,
	})

	assert.Equal(t, "Disruption resolved on lines 1", content.Title)
	assert.Contains(t, content.Body, "resolved")
	assert.Contains(t, content.Body, "Original message: delay")
	assert.Contains(t, content.Body, "2026-08-31 10:30")
}

func TestComposeIsChannelAgnostic(t *testing.T) {
	// Same event, same content, no subscriber anywhere in the signature.
	event := model.ChangeEvent{
		Kind:   model.EventCreated,
		Record: model.Disruption{ID: "A", Lines: []string{"1"}, Message: "m"},
	}
	assert.Equal(t, Compose(event), Compose(event))
}
