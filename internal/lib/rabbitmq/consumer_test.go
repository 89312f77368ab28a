package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("ack on success", func(t *testing.T) {
		ack := &fakeAck{}
		var got []byte
		settle(context.Background(), log, ack, []byte(`{"a":1}`), func(_ context.Context, body []byte) error {
			got = body
			return nil
		})

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		assert.JSONEq(t, `{"a":1}`, string(got))
	})

	t.Run("nack with requeue on error", func(t *testing.T) {
		ack := &fakeAck{}
		settle(context.Background(), log, ack, nil, func(context.Context, []byte) error {
			return errors.New("boom")
		})

		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})
}
