package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip", reg)

	err := p.Publish(context.Background(), "snapshots", []byte("AAPL"), map[string]float64{"price": 190})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "snapshots", w.msgs[0].Topic)
	assert.Equal(t, []byte("AAPL"), w.msgs[0].Key)
	assert.JSONEq(t, `{"price":190}`, string(w.msgs[0].Value))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.m.messages.WithLabelValues("snapshots", "gzip", "ok")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "gzip", nil)

	err := p.Publish(context.Background(), "snapshots", nil, "raw")
	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.m.messages.WithLabelValues("snapshots", "gzip", "error")))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}
