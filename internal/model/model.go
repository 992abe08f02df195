// Package model defines the data structures shared across the linewatch pipeline: disruption records, subscribers, change events and notification content.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ErrInvalidRecord marks a disruption record that cannot be used downstream,
// i.e. one missing the id or the affected lines.
var ErrInvalidRecord = errors.New("invalid disruption record")

var validate = validator.New()

type Disruption struct {
	ID        string `validate:"required"`
	Active    bool
	StartTime *time.Time
	EndTime   *time.Time
	Lines     []string `validate:"required,min=1"`
	Message   string
	URL       string
}

// ContentEquals reports whether two records carry the same content.
// ID and URL are identity, not content, and are ignored here.
func (d Disruption) ContentEquals(other Disruption) bool {
	return d.Active == other.Active &&
		timesEqual(d.StartTime, other.StartTime) &&
		timesEqual(d.EndTime, other.EndTime) &&
		d.Message == other.Message &&
		linesEqual(d.Lines, other.Lines)
}

// Merge returns the fresh record keeping the identity of the old one.
func Merge(old, fresh Disruption) Disruption {
	fresh.ID = old.ID
	return fresh
}

func (d Disruption) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// NormalizeLines trims, drops empty entries and deduplicates while keeping
// the feed order of first occurrence.
func NormalizeLines(lines []string) []string {
	trimmed := lo.FilterMap(lines, func(l string, _ int) (string, bool) {
		l = strings.TrimSpace(l)
		return l, l != ""
	})
	return lo.Uniq(trimmed)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// linesEqual is set equality: order does not matter, duplicates do not count.
func linesEqual(a, b []string) bool {
	ua, ub := lo.Uniq(a), lo.Uniq(b)
	if len(ua) != len(ub) {
		return false
	}
	return lo.Every(ua, ub)
}
