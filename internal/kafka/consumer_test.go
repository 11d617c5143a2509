package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"ms-excursions/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader feeds a fixed message sequence and records committed
// offsets. When it runs dry it cancels the consumer's context.
type scriptedReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func closureMessage(t *testing.T, offset int64, day string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.ShiftClosure{BusinessDay: day, ClosedBy: "dispatcher-1"})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestConsumeDayClosedCommitsOnlyHandledOffsets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &scriptedReader{
		cancel: cancel,
		msgs: []kafka.Message{
			closureMessage(t, 1, "2026-02-20"),
			closureMessage(t, 2, "2026-02-21"),
		},
	}
	consumer := &Consumer{reader: reader}

	var handled []string
	consumer.ConsumeDayClosed(ctx, func(closure models.ShiftClosure) error {
		handled = append(handled, closure.BusinessDay)
		if closure.BusinessDay == "2026-02-20" {
			return assert.AnError
		}
		return nil
	})

	assert.Equal(t, []string{"2026-02-20", "2026-02-21"}, handled)
	// The failed day keeps its offset uncommitted and comes back on the
	// next rebalance or restart.
	assert.Equal(t, []int64{2}, reader.committed)
}

func TestConsumeDayClosedSkipsMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &scriptedReader{
		cancel: cancel,
		msgs:   []kafka.Message{{Offset: 7, Value: []byte("not-json")}},
	}
	consumer := &Consumer{reader: reader}

	calls := 0
	consumer.ConsumeDayClosed(ctx, func(models.ShiftClosure) error {
		calls++
		return nil
	})

	assert.Zero(t, calls)
	assert.Equal(t, []int64{7}, reader.committed)
}
