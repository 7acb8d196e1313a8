package call

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	qstashx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/qstash"
)

var _ contractx.OutcomeNotifier = (*QStashNotifier)(nil)

type publisher interface {
	PublishJSON(ctx context.Context, destination string, v any, opts ...qstashx.PublishOption) (string, error)
}

// QStashNotifier hands call outcomes to the dispatch webhook through QStash.
// The call id is the deduplication key, so a retried notify is delivered once.
type QStashNotifier struct {
	publisher   publisher
	destination string
}

func NewQStashNotifier(p publisher, destination string) (*QStashNotifier, error) {
	if p == nil {
		return nil, errors.New("qstash publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: notify destination is required", contractx.ErrValidation)
	}
	return &QStashNotifier{publisher: p, destination: destination}, nil
}

func (n *QStashNotifier) Notify(ctx context.Context, outcome contractx.CallOutcome) error {
	if _, err := n.publisher.PublishJSON(ctx, n.destination, outcome, qstashx.WithDeduplicationID(outcome.CallID)); err != nil {
		return fmt.Errorf("notify outcome: %w", err)
	}
	return nil
}
