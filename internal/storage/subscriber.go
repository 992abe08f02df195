package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/jhrabal/linewatch/internal/model"
)

// SubscriberStorage is read-only for the pipeline: subscriber rows are
// managed out-of-band.
type SubscriberStorage struct {
	db    *sqlx.DB
	table string
}

func NewSubscriberStorage(db *sqlx.DB, table string) *SubscriberStorage {
	return &SubscriberStorage{db: db, table: pq.QuoteIdentifier(table)}
}

type dbSubscriber struct {
	Channel     string         `db:"channel"`
	DisplayName string         `db:"display_name"`
	Address     string         `db:"address"`
	LineFilter  pq.StringArray `db:"line_filter"`
}

func (s *SubscriberStorage) All(ctx context.Context) ([]model.Subscriber, error) {
	var rows []dbSubscriber
	query := fmt.Sprintf(
		`SELECT channel, display_name, address, line_filter FROM %s`,
		s.table,
	)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbSubscriber, _ int) model.Subscriber {
		return model.Subscriber{
			Channel:     model.ChannelType(row.Channel),
			DisplayName: row.DisplayName,
			Address:     row.Address,
			LineFilter:  row.LineFilter,
		}
	}), nil
}
