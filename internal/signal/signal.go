// Package signal implements the coordination contract with the out-of-process
// analysis worker. The contract is deliberately loose: triggers are
// fire-and-forget, results are read opportunistically and may predate the
// latest trigger, and a missing worker simply means no signal ever arrives.
// Implementations must never upgrade this to a delivery-guaranteed channel;
// downstream logic tolerates staleness and absence by design.
package signal

import (
	"context"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
)

// Channel is the trigger/result handshake with the analysis worker.
type Channel interface {
	// PublishTrigger requests a fresh analysis pass. Each publish
	// overwrites the previous trigger; there is no acknowledgement.
	PublishTrigger(ctx context.Context) error

	// PublishItemReset tells the worker a new item was selected so it can
	// reset its time-pressure accounting.
	PublishItemReset(ctx context.Context, itemID string) error

	// ReadLatestResult returns the worker's most recent result, or
	// (nil, nil) when no usable result is available. Malformed state is
	// treated the same as absent state.
	ReadLatestResult(ctx context.Context) (*model.FaceResult, error)
}
