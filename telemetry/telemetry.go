// Package telemetry records door metrics in InfluxDB.
package telemetry

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

const (
	connectTimeout       = 10 * time.Second
	defaultBatchSize     = 20
	defaultFlushInterval = 10 * time.Second
)

// Config holds InfluxDB settings. Telemetry is disabled when URL is empty.
type Config struct {
	URL           string        `yaml:"url"`
	Token         string        `yaml:"token"`
	Org           string        `yaml:"org"`
	Bucket        string        `yaml:"bucket"`
	BatchSize     uint          `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Client writes metric samples through the batching, non-blocking write API.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	door     string
	logger   *zap.Logger
	drained  chan struct{}
}

// Connect creates a client and verifies the server answers a ping. Samples
// are tagged with door.
func Connect(ctx context.Context, cfg Config, door string, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrDisabled
	}

	batch := cfg.BatchSize
	if batch == 0 {
		batch = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(batch).
			SetFlushInterval(uint(flush.Milliseconds())))

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	c := &Client{
		client:   client,
		writeAPI: writeAPI,
		door:     door,
		logger:   logger,
		drained:  make(chan struct{}),
	}
	// Errors must be taken before the first write; the client closes the
	// channel on Close.
	go c.logWriteErrors(writeAPI.Errors())

	logger.Info("influxdb connected", zap.String("url", cfg.URL), zap.String("bucket", cfg.Bucket))
	return c, nil
}

func (c *Client) logWriteErrors(errs <-chan error) {
	defer close(c.drained)
	for err := range errs {
		c.logger.Warn("influxdb write failed", zap.Error(err))
	}
}

// Report queues one sample. It never blocks on the network.
func (c *Client) Report(metric string, value float64, ts time.Time) {
	c.writeAPI.WritePoint(newPoint(metric, c.door, value, ts))
}

func newPoint(metric, door string, value float64, ts time.Time) *write.Point {
	return write.NewPoint(metric,
		map[string]string{"door": door},
		map[string]interface{}{"value": value},
		ts)
}

// Flush sends buffered samples.
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

// Close flushes pending samples and closes the client.
func (c *Client) Close() error {
	c.writeAPI.Flush()
	c.client.Close()
	<-c.drained
	return nil
}
