package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/macmarek/scheduling-assistant/infra/logger"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

func startMosquitto(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(path, []byte(mosquittoConf), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("mosquitto container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestPublishRunToMosquitto(t *testing.T) {
	broker := startMosquitto(t)

	got := make(chan paho.Message, 4)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("listener"))
	if tok := sub.Connect(); tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
		t.Skipf("broker not ready: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("schedassist/#", 1, func(_ paho.Client, m paho.Message) { got <- m }); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	pub, err := NewPahoPublisher(Config{Broker: broker, ClientID: "publisher", QoS: map[string]byte{"run": 1, "participant": 1}}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.PublishRun(ctx, scheduledRun()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	topics := map[string]bool{}
	for len(topics) < 3 {
		select {
		case m := <-got:
			topics[m.Topic()] = true
			if m.Topic() == "schedassist/runs" {
				var msg RunMessage
				if err := json.Unmarshal(m.Payload(), &msg); err != nil || msg.RunID != "run-1" {
					t.Fatalf("bad run message %s: %v", m.Payload(), err)
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("received only %v", topics)
		}
	}
	for _, want := range []string{"schedassist/runs", "schedassist/participants/A", "schedassist/participants/B"} {
		if !topics[want] {
			t.Fatalf("missing %s", want)
		}
	}
}
