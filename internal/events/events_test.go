package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/events"
)

func TestEncode(t *testing.T) {
	at := time.Date(2024, 12, 20, 6, 30, 0, 0, time.FixedZone("IST", 19800))
	data, err := events.Encode(events.Event{
		Type:       events.TypeScheduleLogged,
		Subject:    "sch_1",
		OccurredAt: at,
		Data:       map[string]int{"score": 77},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "schedule.logged", got["type"])
	assert.Equal(t, "sch_1", got["subject"])
	assert.Equal(t, "2024-12-20T01:00:00Z", got["occurredAt"])
	assert.Equal(t, map[string]any{"score": float64(77)}, got["data"])
}

func TestEncode_UnsupportedData(t *testing.T) {
	_, err := events.Encode(events.Event{Type: "x", Data: make(chan int)})
	assert.Error(t, err)
}

func TestMemoryPublisher(t *testing.T) {
	p := events.NewMemoryPublisher()
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, events.Event{Type: "a"}))
	require.NoError(t, p.Publish(ctx, events.Event{Type: "b"}))

	got := p.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Type)
	assert.Equal(t, "b", got[1].Type)
	assert.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	var p events.Publisher = events.NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{Type: "a"}))
	assert.NoError(t, p.Close())
}
