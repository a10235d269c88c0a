// Package mqtt connects coopdoor to an MQTT broker. It publishes door
// events and availability and receives remote commands.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	keepAlive      = 60 * time.Second
	quiesceMillis  = 250
)

// Client wraps the paho client. A Client with no broker configured is
// disabled and every operation is a no-op.
type Client struct {
	client    paho.Client
	clientID  string
	enabled   bool
	onCommand func(line string)
	logger    *zap.Logger
}

// Config holds MQTT connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// Handlers holds callback functions for MQTT events.
type Handlers struct {
	// OnCommand receives each payload on the command topic.
	OnCommand func(line string)
}

// New creates a client. It returns a disabled client if no host is configured.
func New(cfg Config, clientID string, handlers Handlers, logger *zap.Logger) (*Client, error) {
	c := &Client{
		clientID:  clientID,
		onCommand: handlers.OnCommand,
		logger:    logger,
	}

	if cfg.Host == "" {
		logger.Info("mqtt disabled (no host configured)")
		return c, nil
	}
	c.enabled = true

	var broker string
	var tlsConfig *tls.Config

	if cfg.CACert != "" || cfg.ClientCert != "" {
		if cfg.Port == 0 {
			cfg.Port = 8883
		}
		broker = fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)

		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
	} else {
		if cfg.Port == 0 {
			cfg.Port = 1883
		}
		broker = fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
		logger.Warn("mqtt using non-TLS connection", zap.String("broker", broker))
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetWill(AvailabilityTopic(clientID), "offline", 1, true).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(opts)

	paho.ERROR = zap.NewStdLog(logger.Named("paho"))
	paho.CRITICAL = zap.NewStdLog(logger.Named("paho"))
	paho.WARN = zap.NewStdLog(logger.Named("paho"))

	return c, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CACert)
		}
		tlsConfig.RootCAs = caPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Connect starts connecting to the broker. With connect retry enabled paho
// keeps trying in the background, so an unreachable broker is not fatal.
func (c *Client) Connect() error {
	if !c.enabled {
		return nil
	}

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.logger.Warn("mqtt broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// Disconnect publishes offline availability and disconnects. No-op if disabled.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil {
		return
	}
	if c.client.IsConnected() {
		c.client.Publish(AvailabilityTopic(c.clientID), 1, true, "offline").WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(quiesceMillis)
	c.logger.Info("mqtt disconnected")
}

// Publish publishes payload to topic. No-op if disabled.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !c.enabled {
		return nil
	}
	if qos > 2 {
		return ErrInvalidQoS
	}
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublishFailed, topic, err)
	}
	return nil
}

// IsEnabled returns whether MQTT is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// handleConnect runs on every (re)connect. The session is clean, so the
// command subscription is renewed each time.
func (c *Client) handleConnect(client paho.Client) {
	c.logger.Info("mqtt connection established")

	client.Publish(AvailabilityTopic(c.clientID), 1, true, "online")

	topic := CommandTopic(c.clientID)
	token := client.Subscribe(topic, 1, c.handleMessage)
	go func() {
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			c.logger.Error("mqtt subscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
			return
		}
		c.logger.Info("mqtt subscribed", zap.String("topic", topic))
	}()
}

func (c *Client) handleConnectionLost(client paho.Client, err error) {
	c.logger.Warn("mqtt connection lost", zap.Error(err))
}

func (c *Client) handleMessage(client paho.Client, msg paho.Message) {
	if c.onCommand != nil {
		c.onCommand(string(msg.Payload()))
	}
}
