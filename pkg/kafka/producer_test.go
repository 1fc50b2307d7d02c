package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
)

func TestEncode(t *testing.T) {
	messages, err := encode([]Event{
		{Key: "run-1", Value: map[string]any{"type": "summary", "queries": 2}},
		{Key: "run-1", Value: "plain"},
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, []byte("run-1"), messages[0].Key)
	assert.JSONEq(t, `{"type":"summary","queries":2}`, string(messages[0].Value))
	assert.Equal(t, `"plain"`, string(messages[1].Value))
}

func TestEncodeRejectsUnmarshalableValue(t *testing.T) {
	_, err := encode([]Event{{Key: "run-1", Value: make(chan int)}})
	assert.Error(t, err)
}

func TestNewProducerTopic(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}, ReportTopic: "evaluation-reports"})
	defer p.Close()
	assert.Equal(t, "evaluation-reports", p.writer.Topic)
}
