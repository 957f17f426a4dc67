package intake

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	infmqtt "github.com/macmarek/scheduling-assistant/infra/mqtt"
)

type published struct {
	topic   string
	payload []byte
}

type mockClient struct {
	mu        sync.Mutex
	published []published
	handler   paho.MessageHandler
	subTopic  string
	sent      chan struct{}
}

func (m *mockClient) IsConnected() bool   { return true }
func (m *mockClient) Connect() paho.Token { return dummyToken{} }
func (m *mockClient) Disconnect(uint)     {}
func (m *mockClient) Subscribe(topic string, _ byte, h paho.MessageHandler) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subTopic, m.handler = topic, h
	return dummyToken{}
}
func (m *mockClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	m.published = append(m.published, published{topic: topic, payload: payload.([]byte)})
	m.mu.Unlock()
	if m.sent != nil {
		m.sent <- struct{}{}
	}
	return dummyToken{}
}

type dummyToken struct{}

func (dummyToken) Wait() bool                     { return true }
func (dummyToken) WaitTimeout(time.Duration) bool { return true }
func (dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (dummyToken) Error() error                   { return nil }

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 0 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 0 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

const validRequest = `{
  "day": "2025-09-17",
  "participants": [{"id": "A", "utc_offset": "+00:00"}, {"id": "B", "utc_offset": "+01:00"}],
  "meetings": [{"id": "sync", "duration_minutes": 60, "participants": ["A", "B"]}]
}`

func testManager(t *testing.T, cfg Config) (*Manager, *prometheus.Registry) {
	t.Helper()
	cfg.SetDefaults()
	s, err := scheduler.NewScheduler(scheduler.Config{Day: "2025-09-17"}, nil, nil, nil, logger.NopLogger{})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := newManager(cfg, s, "office", reg)
	require.NoError(t, err)
	return m, reg
}

func TestProcess(t *testing.T) {
	m, _ := testManager(t, Config{})

	r := m.process(context.Background(), request{ID: "42", Payload: []byte(validRequest)})
	assert.Equal(t, "42", r.RequestID)
	assert.Equal(t, model.OutcomeScheduled, r.Outcome)
	assert.NotEmpty(t, r.RunID)
	require.NotNil(t, r.Schedule)
	assert.Len(t, r.Schedule.Entries, 1)

	r = m.process(context.Background(), request{ID: "x", Payload: []byte(`{"participants": 3}`)})
	assert.Equal(t, model.OutcomeInvalidInput, r.Outcome)
	assert.Empty(t, r.RunID)

	unsat := `{"participants": [{"id": "A", "utc_offset": 0}, {"id": "K", "utc_offset": "+09:00"}],
	           "meetings": [{"id": "late", "duration_minutes": 30, "participants": ["A", "K"]}]}`
	r = m.process(context.Background(), request{ID: "u", Payload: []byte(unsat)})
	assert.Equal(t, model.OutcomeUnsatisfiable, r.Outcome)
	assert.Equal(t, "late", r.UnsatisfiableMeeting)
	assert.Nil(t, r.Schedule)
}

func TestStartRepliesAndStops(t *testing.T) {
	m, reg := testManager(t, Config{Workers: 2})
	cli := &mockClient{sent: make(chan struct{}, 4)}
	m.cli = cli

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool {
		cli.mu.Lock()
		defer cli.mu.Unlock()
		return cli.handler != nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "office/requests/+", cli.subTopic)

	cli.handler(nil, message{topic: "office/requests/r1", payload: []byte(validRequest)})
	select {
	case <-cli.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply published")
	}
	cancel()
	require.NoError(t, <-done)

	cli.mu.Lock()
	defer cli.mu.Unlock()
	require.Len(t, cli.published, 1)
	assert.Equal(t, "office/replies/r1", cli.published[0].topic)
	var r Reply
	require.NoError(t, json.Unmarshal(cli.published[0].payload, &r))
	assert.Equal(t, "r1", r.RequestID)
	assert.Equal(t, model.OutcomeScheduled, r.Outcome)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.received))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replies.WithLabelValues("scheduled")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "schedassist_intake_latency_seconds"))
}

func TestQueueFullRejects(t *testing.T) {
	m, _ := testManager(t, Config{Queue: 1})
	m.onRequest(nil, message{topic: "office/requests/a", payload: []byte("{}")})
	m.onRequest(nil, message{topic: "office/requests/b", payload: []byte("{}")})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.received))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	req := <-m.reqCh
	assert.Equal(t, "a", req.ID)
}

func TestNewManagerConnects(t *testing.T) {
	cli := &mockClient{}
	orig := newClient
	newClient = func(*paho.ClientOptions) client { return cli }
	t.Cleanup(func() { newClient = orig })

	m, err := NewManager(infmqtt.Config{Broker: "tcp://localhost:1883"}, Config{}, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "schedassist/requests/+", m.RequestTopic())
	assert.Equal(t, "schedassist/replies/7", m.ReplyTopic("7"))
	assert.Equal(t, 1, m.cfg.Workers)
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, Config{Workers: 1, Queue: 16}, c)
	assert.Error(t, Config{QoS: 3}.Validate())
	assert.Equal(t, "r9", extractID("p/requests/r9"))
}
