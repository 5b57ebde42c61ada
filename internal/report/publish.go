package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soltixdb/dbstats/internal/queue"
)

// Publish sends v, JSON encoded, to subject. v is normally a summary or a
// message wrapping one.
func Publish(ctx context.Context, pub queue.Publisher, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := pub.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	return nil
}
