package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhrabal/linewatch/internal/dispatcher"
	"github.com/jhrabal/linewatch/internal/feed"
	"github.com/jhrabal/linewatch/internal/model"
)

type fakeFeed struct {
	records []feed.RawRecord
	payload []byte
	err     error
}

func (f *fakeFeed) Fetch(context.Context) ([]feed.RawRecord, []byte, error) {
	return f.records, f.payload, f.err
}

type fakeDisruptions struct {
	stored  map[string]model.Disruption
	upserts []model.Disruption
	failIDs map[string]error
	allErr  error
}

func (f *fakeDisruptions) All(context.Context) (map[string]model.Disruption, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.stored, nil
}

func (f *fakeDisruptions) Upsert(_ context.Context, d model.Disruption) error {
	if err := f.failIDs[d.ID]; err != nil {
		return err
	}
	f.upserts = append(f.upserts, d)
	return nil
}

type fakeSubscribers struct {
	subs  []model.Subscriber
	err   error
	calls int
}

func (f *fakeSubscribers) All(context.Context) ([]model.Subscriber, error) {
	f.calls++
	return f.subs, f.err
}

type fakeDispatcher struct {
	events []model.ChangeEvent
	report dispatcher.Report
}

func (f *fakeDispatcher) Dispatch(_ context.Context, events []model.ChangeEvent, _ dispatcher.Registry) dispatcher.Report {
	f.events = append(f.events, events...)
	return f.report
}

func rawRecord(id, message string, lines ...string) feed.RawRecord {
	return feed.RawRecord{ID: id, Active: true, Lines: lines, Message: message}
}

func newRunner(src *fakeFeed, store *fakeDisruptions, subs *fakeSubscribers, disp *fakeDispatcher) *Runner {
	return New(src, store, subs, disp, nil, 0)
}

func TestRunFirstObservation(t *testing.T) {
	src := &fakeFeed{records: []feed.RawRecord{rawRecord("A", "delay", "1")}}
	store := &fakeDisruptions{}
	subs := &fakeSubscribers{subs: []model.Subscriber{
		{Channel: model.ChannelEmail, Address: "a@example.org", LineFilter: []string{"1"}},
	}}
	disp := &fakeDispatcher{}

	summary, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "A", store.upserts[0].ID)
	require.Len(t, disp.events, 1)
	assert.Equal(t, model.EventCreated, disp.events[0].Kind)
}

func TestRunInvalidRecordsSkipped(t *testing.T) {
	src := &fakeFeed{records: []feed.RawRecord{
		{ID: "no-lines", Active: true, Message: "m"},
		rawRecord("B", "ok", "2"),
	}}
	store := &fakeDisruptions{}
	subs := &fakeSubscribers{}
	disp := &fakeDispatcher{}

	summary, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedInvalid)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, disp.events, 1)
	assert.Equal(t, "B", disp.events[0].Record.ID)
}

func TestRunFetchErrorIsFatal(t *testing.T) {
	src := &fakeFeed{err: errors.New("operator page unreachable")}
	store := &fakeDisruptions{}
	disp := &fakeDispatcher{}

	_, err := newRunner(src, store, &fakeSubscribers{}, disp).Run(context.Background())

	require.Error(t, err)
	assert.Empty(t, store.upserts)
	assert.Empty(t, disp.events)
}

func TestRunSnapshotReadErrorIsFatal(t *testing.T) {
	src := &fakeFeed{records: []feed.RawRecord{rawRecord("A", "delay", "1")}}
	store := &fakeDisruptions{allErr: errors.New("connection refused")}

	_, err := newRunner(src, store, &fakeSubscribers{}, &fakeDispatcher{}).Run(context.Background())

	require.ErrorContains(t, err, "store unavailable")
}

func TestRunSubscriberReadErrorIsFatal(t *testing.T) {
	src := &fakeFeed{records: []feed.RawRecord{rawRecord("A", "delay", "1")}}
	store := &fakeDisruptions{}
	subs := &fakeSubscribers{err: errors.New("connection refused")}
	disp := &fakeDispatcher{}

	_, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.ErrorContains(t, err, "store unavailable")
	assert.Empty(t, disp.events, "no partial dispatch against a failed subscriber read")
}

func TestRunFailedWriteDropsEvent(t *testing.T) {
	src := &fakeFeed{records: []feed.RawRecord{
		rawRecord("A", "delay", "1"),
		rawRecord("B", "closure", "2"),
	}}
	store := &fakeDisruptions{failIDs: map[string]error{"A": errors.New("write throttled")}}
	subs := &fakeSubscribers{}
	disp := &fakeDispatcher{}

	summary, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedWrites)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, disp.events, 1)
	assert.Equal(t, "B", disp.events[0].Record.ID)
}

func TestRunNoChangesSkipsDispatch(t *testing.T) {
	stored := model.Disruption{ID: "A", Active: true, Lines: []string{"1"}, Message: "delay"}
	src := &fakeFeed{records: []feed.RawRecord{rawRecord("A", "delay", "1")}}
	store := &fakeDisruptions{stored: map[string]model.Disruption{"A": stored}}
	subs := &fakeSubscribers{}
	disp := &fakeDispatcher{}

	summary, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.Created+summary.Updated+summary.Closed)
	assert.Empty(t, disp.events)
	assert.Zero(t, subs.calls, "subscriber snapshot not read when there is nothing to send")
}

func TestRunEmptyFetchClosesActive(t *testing.T) {
	stored := model.Disruption{ID: "A", Active: true, Lines: []string{"1"}, Message: "delay"}
	src := &fakeFeed{records: nil}
	store := &fakeDisruptions{stored: map[string]model.Disruption{"A": stored}}
	subs := &fakeSubscribers{}
	disp := &fakeDispatcher{}

	summary, err := newRunner(src, store, subs, disp).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Closed)
	require.Len(t, disp.events, 1)
	assert.Equal(t, model.EventClosed, disp.events[0].Kind)
	assert.False(t, disp.events[0].Record.Active)
}
