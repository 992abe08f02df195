// Package sender holds the closed set of delivery channels behind one send
// contract. Senders classify their failures as retryable or permanent; the
// dispatcher decides what to do with either.
package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhrabal/linewatch/internal/model"
)

// Sender delivers channel-agnostic content to one address. Implementations
// must be safe for concurrent use by multiple dispatch workers.
type Sender interface {
	Send(ctx context.Context, address string, content model.NotificationContent) error
}

// PermanentError marks a delivery failure that retrying cannot fix, e.g. an
// invalid address. Everything else is treated as transient.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
