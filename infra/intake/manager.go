// Package intake accepts scheduling requests over MQTT. A request published
// on <prefix>/requests/<id> is solved and answered on <prefix>/replies/<id>.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	infmqtt "github.com/macmarek/scheduling-assistant/infra/mqtt"
)

// Config enables the MQTT request intake.
type Config struct {
	Enabled bool `json:"enabled"`
	// Workers bounds how many requests are solved at once.
	Workers int  `json:"workers"`
	QoS     byte `json:"qos"`
	// Queue is the number of requests buffered while all workers are busy.
	// Requests beyond it are rejected.
	Queue int `json:"queue"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Queue <= 0 {
		c.Queue = 16
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.QoS > 2 {
		return fmt.Errorf("intake: qos %d must be 0, 1 or 2", c.QoS)
	}
	return nil
}

// Runner solves scheduling requests.
type Runner interface {
	Schedule(ctx context.Context, req scheduler.Request) (*scheduler.Result, error)
}

// Reply answers one request.
type Reply struct {
	RequestID            string            `json:"request_id"`
	RunID                string            `json:"run_id,omitempty"`
	Outcome              model.Outcome     `json:"outcome"`
	Error                string            `json:"error,omitempty"`
	UnsatisfiableMeeting string            `json:"unsatisfiable_meeting,omitempty"`
	Schedule             *decoder.Schedule `json:"schedule,omitempty"`
}

type client interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newClient = func(opts *paho.ClientOptions) client {
	return paho.NewClient(opts)
}

type request struct {
	ID      string
	Payload []byte
	Arrived time.Time
}

// Manager subscribes to request topics and replies with schedules.
type Manager struct {
	cfg    Config
	cli    client
	run    Runner
	log    logger.Logger
	prefix string

	reqCh chan request

	received prometheus.Counter
	rejected prometheus.Counter
	replies  *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewManager connects to the broker of mqttCfg. Metrics are registered on
// reg, or on the default registerer when reg is nil.
func NewManager(mqttCfg infmqtt.Config, cfg Config, run Runner, reg prometheus.Registerer) (*Manager, error) {
	mqttCfg.SetDefaults()
	cfg.SetDefaults()
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-intake"
	} else {
		id = "intake-" + uuid.NewString()
	}
	opts.SetClientID(id)
	m, err := newManager(cfg, run, strings.TrimSuffix(mqttCfg.TopicPrefix, "/"), reg)
	if err != nil {
		return nil, err
	}
	cli := newClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m.cli = cli
	return m, nil
}

func newManager(cfg Config, run Runner, prefix string, reg prometheus.Registerer) (*Manager, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Manager{
		cfg:      cfg,
		run:      run,
		log:      logger.New("intake"),
		prefix:   prefix,
		reqCh:    make(chan request, cfg.Queue),
		received: prometheus.NewCounter(prometheus.CounterOpts{Name: "schedassist_intake_requests_total", Help: "Scheduling requests received over MQTT"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{Name: "schedassist_intake_rejected_total", Help: "Requests dropped because the queue was full"}),
		replies:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "schedassist_intake_replies_total", Help: "Replies published by outcome"}, []string{"outcome"}),
		latency:  prometheus.NewHistogram(prometheus.HistogramOpts{Name: "schedassist_intake_latency_seconds", Help: "Time from request arrival to reply", Buckets: prometheus.DefBuckets}),
	}
	for _, c := range []prometheus.Collector{m.received, m.rejected, m.replies, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register intake metrics: %w", err)
		}
	}
	return m, nil
}

// RequestTopic is the wildcard subscription for requests.
func (m *Manager) RequestTopic() string { return m.prefix + "/requests/+" }

// ReplyTopic is where the reply to request id is published.
func (m *Manager) ReplyTopic(id string) string { return m.prefix + "/replies/" + id }

// Start serves requests until ctx is done, then waits for in-flight
// requests and disconnects.
func (m *Manager) Start(ctx context.Context) error {
	if token := m.cli.Subscribe(m.RequestTopic(), m.cfg.QoS, m.onRequest); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe requests: %w", token.Error())
	}
	m.log.Infof("accepting scheduling requests on %s", m.RequestTopic())
	var eg errgroup.Group
	for i := 0; i < m.cfg.Workers; i++ {
		eg.Go(func() error {
			m.worker(ctx)
			return nil
		})
	}
	<-ctx.Done()
	_ = eg.Wait()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
	return nil
}

func (m *Manager) onRequest(_ paho.Client, msg paho.Message) {
	m.received.Inc()
	req := request{ID: extractID(msg.Topic()), Payload: msg.Payload(), Arrived: time.Now()}
	select {
	case m.reqCh <- req:
	default:
		m.rejected.Inc()
		m.log.Warnf("request %s dropped: queue full", req.ID)
	}
}

func extractID(topic string) string {
	parts := strings.Split(topic, "/")
	return parts[len(parts)-1]
}

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case req := <-m.reqCh:
			reply := m.process(ctx, req)
			if err := m.publish(reply); err != nil {
				m.log.Errorf("reply %s: %v", req.ID, err)
				continue
			}
			m.replies.WithLabelValues(string(reply.Outcome)).Inc()
			m.latency.Observe(time.Since(req.Arrived).Seconds())
		case <-ctx.Done():
			return
		}
	}
}

// process decodes a JSON request and runs it.
func (m *Manager) process(ctx context.Context, req request) Reply {
	reply := Reply{RequestID: req.ID}
	in, err := scheduler.DecodeInput(bytes.NewReader(req.Payload), "json")
	var sreq scheduler.Request
	if err == nil {
		sreq, err = in.Request()
	}
	if err != nil {
		reply.Outcome = model.OutcomeOf(err)
		reply.Error = err.Error()
		return reply
	}
	res, err := m.run.Schedule(ctx, sreq)
	if res != nil {
		reply.RunID = res.RunID
		reply.Outcome = res.Outcome
		reply.Schedule = res.Schedule
	}
	if err != nil {
		reply.Outcome = model.OutcomeOf(err)
		reply.Error = err.Error()
		var unsat *model.UnsatisfiableError
		if errors.As(err, &unsat) {
			reply.UnsatisfiableMeeting = unsat.MeetingID
		}
	}
	return reply
}

func (m *Manager) publish(r Reply) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	token := m.cli.Publish(m.ReplyTopic(r.RequestID), m.cfg.QoS, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}
