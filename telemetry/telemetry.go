// Package telemetry publishes driver events (card initialization and
// operation failures) over MQTT, so a fleet of hosts running
// this driver can be monitored from one broker. It is entirely optional:
// a CardHandle never depends on it directly, callers wire a Publisher's
// hook methods into their own event sites.
package telemetry

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

// Config configures a Publisher.
type Config struct {
	// ClientID identifies this connection to the broker.
	ClientID string
	// Topic is the single topic every event is published to.
	Topic string
	Logger *slog.Logger
}

// Publisher holds a live MQTT connection over a plain net.Conn and
// publishes small JSON-free key=value event lines to a fixed topic at
// QoS0, on the theory that telemetry is best-effort and must never block
// or fail the operation it's reporting on.
//
// Unlike the embedded examples this pattern is grounded on, Publisher
// dials with the standard net package rather than a bare-metal TCP/IP
// stack: this driver runs on a host that already has an OS network stack.
type Publisher struct {
	conn   net.Conn
	client *mqtt.Client
	varPub mqtt.VariablesPublish
	flags  mqtt.PacketFlags
	logger *slog.Logger
	seq    uint16
}

// Dial connects to addr (host:port) and completes the MQTT handshake.
func Dial(addr string, cfg Config) (*Publisher, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, err
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(mqtt.Header, mqtt.VariablesPublish, io.Reader) error {
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(cfg.ClientID))
	if err := client.StartConnect(conn, &varconn); err != nil {
		conn.Close()
		return nil, err
	}
	p := &Publisher{
		conn:   conn,
		client: client,
		flags:  flags,
		logger: cfg.Logger,
		varPub: mqtt.VariablesPublish{TopicName: []byte(cfg.Topic)},
	}
	return p, nil
}

// Close disconnects and closes the underlying connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// Publish sends payload at QoS0 on the configured topic, logging (rather
// than returning) any failure, since telemetry is never allowed to
// interrupt the caller's I/O path.
func (p *Publisher) Publish(payload []byte) {
	if p == nil || p.client == nil || !p.client.IsConnected() {
		return
	}
	p.seq++
	p.varPub.PacketIdentifier = p.seq
	if err := p.client.PublishPayload(p.flags, p.varPub, payload); err != nil {
		if p.logger != nil {
			p.logger.Warn("telemetry publish failed", slog.Any("err", err))
		}
	}
}

// CardInitialized publishes a card-detected event.
func (p *Publisher) CardInitialized(cardType string, blockCount uint32) {
	p.Publish([]byte("event=init type=" + cardType + " blocks=" + strconv.FormatUint(uint64(blockCount), 10)))
}

// OperationFailed publishes a driver-error event.
func (p *Publisher) OperationFailed(op string, err error) {
	p.Publish([]byte("event=error op=" + op + " reason=" + err.Error()))
}
