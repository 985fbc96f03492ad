// Package util holds the fixtures shared by the seatmatch integration tests:
// a disposable Mosquitto broker, a topic collector for the notifications the
// service publishes, and a poller for the Prometheus endpoint it serves.
package util

import (
	"context"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	BrokerReadyTimeout = 5 * time.Second
	MetricTimeout      = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = "listener 1883\nallow_anonymous true\npersistence false\nlog_dest stdout\n"

// Broker is a Mosquitto container accepting anonymous clients.
type Broker struct {
	URL       string
	container tc.Container
}

// StartBroker runs eclipse-mosquitto and waits until an MQTT client can
// connect to it.
func StartBroker(ctx context.Context) (*Broker, error) {
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Files: []tc.ContainerFile{{
			Reader:            strings.NewReader(mosquittoConf),
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForAll(
			wait.ForLog("mosquitto version"),
			wait.ForListeningPort("1883/tcp"),
		),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return nil, fmt.Errorf("start mosquitto: %w", err)
	}
	b := &Broker{container: c}
	endpoint, err := c.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		b.Close()
		return nil, err
	}
	b.URL = endpoint

	readyCtx, cancel := context.WithTimeout(ctx, BrokerReadyTimeout)
	defer cancel()
	if err := b.awaitConnect(readyCtx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Close terminates the container.
func (b *Broker) Close() {
	_ = b.container.Terminate(context.Background())
}

func (b *Broker) awaitConnect(ctx context.Context) error {
	opts := paho.NewClientOptions().AddBroker(b.URL).SetClientID("seatmatch-ready")
	for {
		cli := paho.NewClient(opts)
		if tok := cli.Connect(); tok.Wait() && tok.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("broker %s not ready: %w", b.URL, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// Message is a payload received by a Collector.
type Message struct {
	Topic   string
	Payload []byte
}

// Collector buffers what a subscription receives.
type Collector struct {
	C   <-chan Message
	cli paho.Client
}

// Subscribe collects every message matching filter until Close.
func (b *Broker) Subscribe(ctx context.Context, filter string) (*Collector, error) {
	ch := make(chan Message, 64)
	opts := paho.NewClientOptions().AddBroker(b.URL).SetClientID(fmt.Sprintf("seatmatch-collect-%d", time.Now().UnixNano()))
	cli := paho.NewClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, tok.Error()
	}
	tok := cli.Subscribe(filter, 1, func(_ paho.Client, m paho.Message) {
		select {
		case ch <- Message{Topic: m.Topic(), Payload: m.Payload()}:
		case <-ctx.Done():
		}
	})
	if tok.Wait() && tok.Error() != nil {
		cli.Disconnect(100)
		return nil, tok.Error()
	}
	return &Collector{C: ch, cli: cli}, nil
}

// Close disconnects the subscriber.
func (c *Collector) Close() { c.cli.Disconnect(100) }

// WaitForMetrics scrapes url until the named families match expected, given
// in the text exposition format, or ctx ends. The last mismatch is returned.
func WaitForMetrics(ctx context.Context, url, expected string, families ...string) error {
	for {
		err := testutil.ScrapeAndCompare(url, strings.NewReader(expected), families...)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metrics at %s: %w", url, err)
		case <-time.After(pollInterval):
		}
	}
}
