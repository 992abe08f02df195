// Package registry gives the dispatcher a line-filtered view over one
// snapshot of subscriber rows. The snapshot is read once per run so every
// dispatch decision in that run sees the same subscriber set.
package registry

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/jhrabal/linewatch/internal/model"
)

type Registry struct {
	subscribers []model.Subscriber
}

func New(subscribers []model.Subscriber) *Registry {
	return &Registry{subscribers: subscribers}
}

// SubscribersFor returns every subscriber whose line filter is empty or
// intersects the given lines, deduplicated by (channel, address). The first
// row wins on duplicates.
func (r *Registry) SubscribersFor(lines []string) []model.Subscriber {
	matched := lo.Filter(r.subscribers, func(s model.Subscriber, _ int) bool {
		return s.Wants(lines)
	})
	return lo.UniqBy(matched, func(s model.Subscriber) string {
		return fmt.Sprintf("%s\x00%s", s.Channel, s.Address)
	})
}
