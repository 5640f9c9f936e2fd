package synapse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

var (
	ERR_CANT_CONNECT = errors.New("Can't connect to the MQTT broker")
	ERR_CANT_PUBLISH = errors.New("Can't publish the tracking record")
)

type PublisherConfig struct {
	Address        string
	ClientId       string
	Topic          string
	ConnectTimeout time.Duration
}

// Sends every record as a Command on a single topic
type Publisher struct {
	cfg     PublisherConfig
	client  *mqtt.Client
	logger  *slog.Logger
	flags   mqtt.PacketFlags
	mu      sync.Mutex
	counter uint
}

func Dial(ctx context.Context, parent_logger *slog.Logger, cfg PublisherConfig) (*Publisher, error) {
	logger := parent_logger.With("component", "mqtt", "broker", cfg.Address, "topic", cfg.Topic)

	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return nil, fmt.Errorf("Publish flags: %w", err)
	}

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 2048)},
	})

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("Dial %s: %w: %w", cfg.Address, ERR_CANT_CONNECT, err)
	}

	connect_ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	var vars mqtt.VariablesConnect
	vars.SetDefaultMQTT([]byte(cfg.ClientId))
	if err := client.Connect(connect_ctx, conn, &vars); err != nil {
		conn.Close()
		return nil, fmt.Errorf("Handshake: %w: %w", ERR_CANT_CONNECT, err)
	}
	logger.Info("Connected")

	return &Publisher{cfg: cfg, client: client, logger: logger, flags: flags}, nil
}

func (p *Publisher) Publish(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counter++
	payload, err := NewCommand(p.counter, p.cfg.ClientId, p.cfg.Topic, &r).ToPayload()
	if err != nil {
		return fmt.Errorf("Marshal record %d: %w", r.Frame, err)
	}
	err = p.client.PublishPayload(p.flags, mqtt.VariablesPublish{TopicName: []byte(p.cfg.Topic)}, payload)
	if err != nil {
		return fmt.Errorf("Frame %d: %w: %w", r.Frame, ERR_CANT_PUBLISH, err)
	}
	p.logger.Debug("Published", "frame", r.Frame, "bytes", len(payload))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client.Disconnect(errors.New("Publisher closed"))
}
