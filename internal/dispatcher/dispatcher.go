// Package dispatcher fans change events out to matching subscribers across
// the configured channels. Each (event, subscriber) delivery is independent:
// one failing pair never blocks another. Within one subscriber the events of
// a run are delivered in classification order, so a created and a closed for
// the same disruption cannot arrive reversed.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/jhrabal/linewatch/internal/composer"
	"github.com/jhrabal/linewatch/internal/model"
	"github.com/jhrabal/linewatch/internal/sender"
)

// Registry is the per-run subscriber snapshot the dispatcher resolves
// targets from.
type Registry interface {
	SubscribersFor(lines []string) []model.Subscriber
}

type Options struct {
	// Attempts is the total delivery attempt budget per (event, subscriber)
	// pair, including the first try.
	Attempts int
	// Backoff is the wait before the second attempt; it doubles per retry.
	Backoff time.Duration
	// Timeout bounds every single send.
	Timeout time.Duration
	// Workers bounds concurrent deliveries per channel.
	Workers int
}

type Dispatcher struct {
	senders map[model.ChannelType]sender.Sender
	opts    Options
}

func New(senders map[model.ChannelType]sender.Sender, opts Options) *Dispatcher {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Dispatcher{senders: senders, opts: opts}
}

type job struct {
	event      model.ChangeEvent
	subscriber model.Subscriber
	content    model.NotificationContent
}

// Failure identifies one delivery given up on, after the retry budget for
// transient errors or immediately for permanent ones.
type Failure struct {
	EventID    string
	EventKind  model.EventKind
	Subscriber model.Subscriber
	Permanent  bool
	Err        error
}

type ChannelStats struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Report is the per-run delivery outcome. Individual failures never surface
// as errors; they are accumulated here.
type Report struct {
	Channels map[model.ChannelType]ChannelStats
	Failures []Failure
	// SkippedDisabled counts deliveries not attempted because the
	// subscriber's channel has no configured sender.
	SkippedDisabled int
}

func (r *Report) Attempted() int {
	n := 0
	for _, st := range r.Channels {
		n += st.Attempted
	}
	return n
}

func (r *Report) Succeeded() int {
	n := 0
	for _, st := range r.Channels {
		n += st.Succeeded
	}
	return n
}

func (r *Report) Failed() int {
	n := 0
	for _, st := range r.Channels {
		n += st.Failed
	}
	return n
}

// Dispatch resolves subscribers for every event and delivers the composed
// content through each subscriber's channel.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.ChangeEvent, registry Registry) Report {
	report := Report{Channels: make(map[model.ChannelType]ChannelStats)}

	// Group jobs per channel and, within a channel, per address. Grouping
	// preserves event order, so one worker draining one address group keeps
	// the per-subscriber ordering guarantee.
	type group struct {
		order []string
		jobs  map[string][]job
	}
	groups := make(map[model.ChannelType]*group)

	for _, event := range events {
		content := composer.Compose(event)
		for _, sub := range registry.SubscribersFor(event.Record.Lines) {
			if _, ok := d.senders[sub.Channel]; !ok {
				report.SkippedDisabled++
				continue
			}
			g, ok := groups[sub.Channel]
			if !ok {
				g = &group{jobs: make(map[string][]job)}
				groups[sub.Channel] = g
			}
			if _, ok := g.jobs[sub.Address]; !ok {
				g.order = append(g.order, sub.Address)
			}
			g.jobs[sub.Address] = append(g.jobs[sub.Address], job{
				event:      event,
				subscriber: sub,
				content:    content,
			})
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for channel, g := range groups {
		snd := d.senders[channel]
		queue := make(chan []job)

		for w := 0; w < d.opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for jobs := range queue {
					for _, j := range jobs {
						err, permanent := d.deliver(ctx, snd, j)

						mu.Lock()
						st := report.Channels[channel]
						st.Attempted++
						if err == nil {
							st.Succeeded++
						} else {
							st.Failed++
							report.Failures = append(report.Failures, Failure{
								EventID:    j.event.Record.ID,
								EventKind:  j.event.Kind,
								Subscriber: j.subscriber,
								Permanent:  permanent,
								Err:        err,
							})
						}
						report.Channels[channel] = st
						mu.Unlock()
					}
				}
			}()
		}

		// Feed asynchronously so distinct channels dispatch in parallel.
		go func(g *group) {
			defer close(queue)
			for _, address := range g.order {
				queue <- g.jobs[address]
			}
		}(g)
	}

	wg.Wait()
	return report
}

// deliver runs the bounded attempt loop for one (event, subscriber) pair.
// A timed-out send counts as transient and eats one attempt.
func (d *Dispatcher) deliver(ctx context.Context, snd sender.Sender, j job) (err error, permanent bool) {
	backoff := d.opts.Backoff

	for attempt := 1; ; attempt++ {
		err = d.send(ctx, snd, j)
		if err == nil {
			return nil, false
		}
		if sender.IsPermanent(err) {
			return err, true
		}
		if attempt >= d.opts.Attempts {
			return err, false
		}

		select {
		case <-ctx.Done():
			return ctx.Err(), false
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (d *Dispatcher) send(ctx context.Context, snd sender.Sender, j job) error {
	if d.opts.Timeout <= 0 {
		return snd.Send(ctx, j.subscriber.Address, j.content)
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return snd.Send(sendCtx, j.subscriber.Address, j.content)
}
