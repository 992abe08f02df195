// Package runner ties one scheduled execution together: fetch the feed,
// detect changes against stored state, persist, notify, report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jhrabal/linewatch/internal/detector"
	"github.com/jhrabal/linewatch/internal/dispatcher"
	"github.com/jhrabal/linewatch/internal/feed"
	"github.com/jhrabal/linewatch/internal/model"
	"github.com/jhrabal/linewatch/internal/registry"
)

type FeedSource interface {
	Fetch(ctx context.Context) ([]feed.RawRecord, []byte, error)
}

type DisruptionStore interface {
	All(ctx context.Context) (map[string]model.Disruption, error)
	Upsert(ctx context.Context, d model.Disruption) error
}

type SubscriberStore interface {
	All(ctx context.Context) ([]model.Subscriber, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, events []model.ChangeEvent, reg dispatcher.Registry) dispatcher.Report
}

type Archiver interface {
	Store(payload []byte, now time.Time) error
}

// Summary is what one run reports to the operator.
type Summary struct {
	Fetched        int
	SkippedInvalid int
	Created        int
	Updated        int
	Closed         int
	FailedWrites   int
	Dispatch       dispatcher.Report
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"fetched=%d invalid=%d created=%d updated=%d closed=%d failed_writes=%d sent=%d/%d failed_sends=%d skipped_disabled=%d",
		s.Fetched, s.SkippedInvalid, s.Created, s.Updated, s.Closed, s.FailedWrites,
		s.Dispatch.Succeeded(), s.Dispatch.Attempted(), s.Dispatch.Failed(),
		s.Dispatch.SkippedDisabled,
	)
}

type Runner struct {
	feed        FeedSource
	disruptions DisruptionStore
	subscribers SubscriberStore
	dispatch    Dispatcher
	archiver    Archiver

	interval time.Duration
}

func New(
	feedSource FeedSource,
	disruptions DisruptionStore,
	subscribers SubscriberStore,
	dispatch Dispatcher,
	archiver Archiver,
	interval time.Duration,
) *Runner {
	return &Runner{
		feed:        feedSource,
		disruptions: disruptions,
		subscribers: subscribers,
		dispatch:    dispatch,
		archiver:    archiver,
		interval:    interval,
	}
}

// Start runs once immediately; with a positive interval it keeps running on
// a ticker until the context ends or a run fails fatally.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.runAndLog(ctx); err != nil {
		return err
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.runAndLog(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) runAndLog(ctx context.Context) error {
	summary, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("[INFO] run finished: %s", summary)
	return nil
}

// Run executes one pipeline pass. The returned error is fatal (feed or store
// unreachable); everything partial lands in the summary instead.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	raws, payload, err := r.feed.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("feed source: %w", err)
	}
	summary.Fetched = len(raws)

	if r.archiver != nil {
		if err := r.archiver.Store(payload, time.Now().UTC()); err != nil {
			log.Printf("[ERROR] failed to archive feed payload: %v", err)
		}
	}

	records := make([]model.Disruption, 0, len(raws))
	for _, raw := range raws {
		rec, err := feed.Parse(raw)
		if err != nil {
			if errors.Is(err, model.ErrInvalidRecord) {
				log.Printf("[ERROR] skipping record %q: %v", raw.ID, err)
				summary.SkippedInvalid++
				continue
			}
			return summary, err
		}
		records = append(records, rec)
	}

	stored, err := r.disruptions.All(ctx)
	if err != nil {
		return summary, fmt.Errorf("store unavailable: %w", err)
	}

	result := detector.Diff(time.Now().UTC(), records, stored)

	// A record whose write failed keeps its stale stored state, so the same
	// change is re-detected next run; notifying about it now would announce
	// state that did not persist.
	surviving := make([]model.ChangeEvent, 0, len(result.Events))
	for _, event := range result.Events {
		if err := r.disruptions.Upsert(ctx, event.Record); err != nil {
			log.Printf("[ERROR] failed to upsert %s, dropping its %s event: %v",
				event.Record.ID, event.Kind, err)
			summary.FailedWrites++
			continue
		}
		surviving = append(surviving, event)
	}

	for _, event := range surviving {
		switch event.Kind {
		case model.EventCreated:
			summary.Created++
		case model.EventUpdated:
			summary.Updated++
		case model.EventClosed:
			summary.Closed++
		}
	}

	if len(surviving) == 0 {
		return summary, nil
	}

	subs, err := r.subscribers.All(ctx)
	if err != nil {
		return summary, fmt.Errorf("store unavailable: %w", err)
	}

	summary.Dispatch = r.dispatch.Dispatch(ctx, surviving, registry.New(subs))
	return summary, nil
}
