package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/events"
	coremqtt "github.com/macmarek/scheduling-assistant/core/mqtt"
	"github.com/macmarek/scheduling-assistant/infra/logger"
)

// DefaultTopicPrefix roots every topic written by the publisher.
const DefaultTopicPrefix = "schedassist"

// Config defines the connection parameters for the Paho MQTT client.
// Publishing is disabled when Broker is empty.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	TopicPrefix string          `json:"topic_prefix"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	QoS         map[string]byte `json:"qos"`
	Retain      bool            `json:"retain"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	TLSConfig   *tls.Config     `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "schedassist"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings of an enabled client.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	for k, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt: qos %s=%d must be 0, 1 or 2", k, q)
		}
	}
	if strings.ContainsAny(c.TopicPrefix, "+#") {
		return fmt.Errorf("mqtt: topic_prefix %q must not contain wildcards", c.TopicPrefix)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements the core Publisher interface using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        map[string]byte
	retain     bool
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config, log logger.Logger) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_publisher")
	}
	p := &PahoPublisher{
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// RunMessage is the payload published on <prefix>/runs.
type RunMessage struct {
	RunID     string            `json:"run_id"`
	Outcome   string            `json:"outcome"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Schedule  *decoder.Schedule `json:"schedule,omitempty"`
}

// AgendaItem is one meeting in a participant's local time.
type AgendaItem struct {
	MeetingID string    `json:"meeting_id"`
	Team      string    `json:"team,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// AgendaMessage is the payload published on <prefix>/participants/<id>.
type AgendaMessage struct {
	RunID         string       `json:"run_id"`
	ParticipantID string       `json:"participant_id"`
	Day           string       `json:"day"`
	Meetings      []AgendaItem `json:"meetings"`
}

// Agendas groups a schedule by attendee. Participants appear in order of
// first attendance.
func Agendas(runID string, s *decoder.Schedule) []AgendaMessage {
	idx := make(map[string]int)
	var out []AgendaMessage
	for _, e := range s.Entries {
		for _, a := range e.Attendees {
			i, ok := idx[a.ParticipantID]
			if !ok {
				i = len(out)
				idx[a.ParticipantID] = i
				out = append(out, AgendaMessage{RunID: runID, ParticipantID: a.ParticipantID, Day: s.Day.Format("2006-01-02")})
			}
			out[i].Meetings = append(out[i].Meetings, AgendaItem{MeetingID: e.MeetingID, Team: e.Team, Start: a.LocalStart, End: a.LocalEnd})
		}
	}
	return out
}

// PublishRun sends the run summary followed by one agenda per attendee.
func (p *PahoPublisher) PublishRun(ctx context.Context, run events.RunCompleted) error {
	msg := RunMessage{
		RunID:     run.RunID,
		Outcome:   string(run.Outcome),
		Timestamp: run.Time.UnixMilli(),
		Schedule:  run.Schedule,
	}
	if run.Err != nil {
		msg.Error = run.Err.Error()
	}
	if err := p.publishJSON(ctx, p.prefix+"/runs", p.qosFor("run"), msg); err != nil {
		return err
	}
	if run.Schedule == nil {
		return nil
	}
	for _, a := range Agendas(run.RunID, run.Schedule) {
		if err := p.publishJSON(ctx, p.prefix+"/participants/"+a.ParticipantID, p.qosFor("participant"), a); err != nil {
			return err
		}
	}
	return nil
}

func (p *PahoPublisher) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoPublisher) publishJSON(ctx context.Context, topic string, qos byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.cli == nil {
		return coremqtt.ErrNotConnected
	}
	err = retry.Do(
		func() error {
			token := p.cli.Publish(topic, qos, p.retain, payload)
			token.Wait()
			return token.Error()
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.maxRetries+1)),
		retry.Delay(p.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warnf("publish attempt %d to %s failed: %v", n+1, topic, err)
		}),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
