package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter captures written messages.
type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisherPublish(t *testing.T) {
	writer := &fakeWriter{}
	p := newPublisher(writer, Config{}, zerolog.Nop())

	event := SearchCompletedEvent{
		SearchID:    "search-123",
		Query:       "graph neural networks",
		ResultCount: 7,
		Ranked:      true,
		CompletedAt: time.Now().UTC(),
	}

	p.Publish(context.Background(), event)

	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("search-123"), writer.messages[0].Key)

	var got SearchCompletedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &got))
	assert.Equal(t, "graph neural networks", got.Query)
	assert.Equal(t, 7, got.ResultCount)
	assert.True(t, got.Ranked)
	assert.False(t, got.UsedFallbackPlan)
}

func TestPublisherWriteFailureIsSwallowed(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	p := newPublisher(writer, Config{}, zerolog.Nop())

	// Must not panic or surface the error.
	p.Publish(context.Background(), SearchCompletedEvent{SearchID: "search-1"})

	assert.Empty(t, writer.messages)
}

func TestPublisherClose(t *testing.T) {
	writer := &fakeWriter{}
	p := newPublisher(writer, Config{}, zerolog.Nop())

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}
