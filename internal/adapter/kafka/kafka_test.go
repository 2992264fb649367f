package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-location-service/internal/config"
	"github.com/couchcryptid/weather-location-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.LocationChanged{
		ID:        "evt-1",
		Location:  "51.5074,-0.1278",
		Label:     "London, UK",
		Source:    domain.SourceSelection,
		Unit:      domain.Celsius,
		ChangedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("51.5074,-0.1278"), msg.Key)
	assert.Contains(t, string(msg.Value), `"source":"selection"`)
	assert.Equal(t, now, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "changed_at", msg.Headers[0].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[0].Value)
	assert.Equal(t, "source", msg.Headers[1].Key)
	assert.Equal(t, []byte("selection"), msg.Headers[1].Value)

	var decoded domain.LocationChanged
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestWriter_PublishNothing(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaLocationTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.Publish(context.Background()))
}
