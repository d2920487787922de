package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/clarsix/internal/events/config"
)

func TestNewPublisher(t *testing.T) {
	nop := NewPublisher(config.Config{})
	assert.IsType(t, nopPublisher{}, nop)
	require.NoError(t, nop.Publish(context.Background(), Transition{OrderID: "ORD-1"}))
	require.NoError(t, nop.Close())

	pub := NewPublisher(config.Config{KafkaBrokers: []string{"localhost:9092"}})
	kp, ok := pub.(*kafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, defaultTopic, kp.w.Topic)
	require.NoError(t, pub.Close())
}
