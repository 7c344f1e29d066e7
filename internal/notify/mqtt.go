package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hmanprod/fleetmada/internal/models"
)

const (
	DefaultTopicPrefix = "fleet/notifications"
	publishTimeout     = 5 * time.Second
)

// MQTTClient is the part of mqtt.Client the publisher needs.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher pushes each created notification as JSON to
// <prefix>/<userID> with QoS 1.
type MQTTPublisher struct {
	client  MQTTClient
	prefix  string
	timeout time.Duration
}

func NewMQTTPublisher(client MQTTClient, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTPublisher{client: client, prefix: prefix, timeout: publishTimeout}
}

// Topic returns the topic notifications of userID are published on.
func (p *MQTTPublisher) Topic(userID string) string {
	return p.prefix + "/" + userID
}

func (p *MQTTPublisher) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	topic := p.Topic(n.UserID)
	token := p.client.Publish(topic, 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s: timed out after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// ConnectMQTT connects to broker (e.g. tcp://localhost:1883) with
// auto-reconnect enabled.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return client, nil
}
