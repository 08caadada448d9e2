package notify

import (
	"context"

	"github.com/cuemby/beacon/pkg/alerts"
)

// Channel is a single notification destination. Implementations must
// be safe for concurrent use; the Router calls SendAlert/SendResolution
// from one goroutine per matched channel.
type Channel interface {
	Name() string
	SendAlert(ctx context.Context, alert *alerts.Alert, body string) error
	SendResolution(ctx context.Context, alert *alerts.Alert, body string) error
}
