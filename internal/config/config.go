// Package config loads daemon and Lambda configuration from an optional
// YAML file and the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/example/workorders/internal/cdc"
	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/routing"
)

// Topology selects how work orders reach their channels.
type Topology string

const (
	// TopologyDirect publishes inline to one channel per status.
	TopologyDirect Topology = "direct"
	// TopologyStream persists only; a change feed consumer publishes.
	TopologyStream Topology = "stream"
	// TopologyTopic publishes inline to a shared SNS topic.
	TopologyTopic Topology = "topic"
	// TopologyBus publishes inline to a shared EventBridge bus.
	TopologyBus Topology = "bus"
)

// Transport selects the publisher behind the router.
type Transport string

const (
	TransportAWS    Transport = "aws"
	TransportOutbox Transport = "outbox"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// Config is the full process configuration.
type Config struct {
	Topology      Topology       `yaml:"topology"`
	Transport     Transport      `yaml:"transport"`
	Store         StoreConfig    `yaml:"store"`
	Channels      ChannelsConfig `yaml:"channels"`
	SharedChannel string         `yaml:"shared_channel"`
	HTTPAddr      string         `yaml:"http_addr"`
	GRPCAddr      string         `yaml:"grpc_addr"`
	MetricsAddr   string         `yaml:"metrics_addr"`
	Feed          FeedConfig     `yaml:"feed"`
	Publish       PublishConfig  `yaml:"publish"`
	AWS           AWSConfig      `yaml:"aws"`
	LogLevel      string         `yaml:"log_level"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	Table      string `yaml:"table"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ChannelsConfig names the per-status channels: queue URLs for the aws
// transport, plain names for the outbox.
type ChannelsConfig struct {
	Received   string `yaml:"received"`
	InProgress string `yaml:"in_progress"`
	Completed  string `yaml:"completed"`
	Canceled   string `yaml:"canceled"`
}

type FeedConfig struct {
	Consumer     string        `yaml:"consumer"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

type PublishConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

type AWSConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration for a local run: direct topology over
// the sqlite outbox.
func Default() *Config {
	feed := cdc.DefaultConsumerConfig()
	retry := routing.DefaultRetryPolicy()
	return &Config{
		Topology:  TopologyDirect,
		Transport: TransportOutbox,
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: "workorders.db",
		},
		Channels: ChannelsConfig{
			Received:   "received",
			InProgress: "in-progress",
			Completed:  "completed",
			Canceled:   "canceled",
		},
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		MetricsAddr: ":6060",
		Feed: FeedConfig{
			Consumer:     feed.Name,
			PollInterval: feed.PollInterval,
			BatchSize:    feed.BatchSize,
		},
		Publish: PublishConfig{
			Attempts: retry.Attempts,
			Delay:    retry.Delay,
		},
		LogLevel: "INFO",
	}
}

// Lambda returns the base configuration for the Lambda entry points:
// DynamoDB store and AWS transport, channels from the environment.
func Lambda() *Config {
	cfg := Default()
	cfg.Transport = TransportAWS
	cfg.Store = StoreConfig{Driver: DriverDynamoDB}
	cfg.Channels = ChannelsConfig{}
	return cfg
}

// FromEnv applies the environment to base and returns it.
func FromEnv(base *Config) (*Config, error) {
	if err := base.applyEnv(os.LookupEnv); err != nil {
		return nil, errors.Trace(err)
	}
	return base, nil
}

// Load reads path (if not empty) over the defaults and then applies the
// environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Annotatef(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Annotatef(err, "parsing config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	port := func(name string, dst *string) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 65535 {
			return errors.NotValidf("%s %q", name, v)
		}
		*dst = fmt.Sprintf(":%d", n)
		return nil
	}

	var topology, transport string
	set("WORKORDERS_TOPOLOGY", &topology)
	set("WORKORDERS_TRANSPORT", &transport)
	if topology != "" {
		c.Topology = Topology(topology)
	}
	if transport != "" {
		c.Transport = Transport(transport)
	}

	set("WORKORDERS_STORE", &c.Store.Driver)
	set("DYNAMODB_TABLE", &c.Store.Table)
	set("SQLITE_PATH", &c.Store.SQLitePath)

	set("SQS_RECEIVED", &c.Channels.Received)
	set("SQS_IN_PROGRESS", &c.Channels.InProgress)
	set("SQS_COMPLETED", &c.Channels.Completed)
	set("SQS_CANCELED", &c.Channels.Canceled)
	switch c.Topology {
	case TopologyTopic:
		set("SNS_TOPIC_ARN", &c.SharedChannel)
	case TopologyBus:
		set("EVENT_BUS_NAME", &c.SharedChannel)
	}

	for name, dst := range map[string]*string{
		"HTTP_PORT":    &c.HTTPAddr,
		"GRPC_PORT":    &c.GRPCAddr,
		"METRICS_PORT": &c.MetricsAddr,
	} {
		if err := port(name, dst); err != nil {
			return err
		}
	}

	set("AWS_REGION", &c.AWS.Region)
	set("AWS_ENDPOINT_URL", &c.AWS.Endpoint)
	set("LOG_LEVEL", &c.LogLevel)
	return nil
}

// Validate reports the first configuration defect. A valid configuration
// has a channel for every status, so routing never meets an unroutable one.
func (c *Config) Validate() error {
	switch c.Topology {
	case TopologyDirect, TopologyStream, TopologyTopic, TopologyBus:
	default:
		return errors.NotValidf("topology %q", c.Topology)
	}
	switch c.Transport {
	case TransportAWS, TransportOutbox:
	default:
		return errors.NotValidf("transport %q", c.Transport)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.NotValidf("sqlite store without sqlite_path")
		}
	case DriverDynamoDB:
		if c.Store.Table == "" {
			return errors.NotValidf("dynamodb store without table")
		}
	default:
		return errors.NotValidf("store driver %q", c.Store.Driver)
	}
	if c.Transport == TransportOutbox && c.Store.Driver != DriverSQLite {
		return errors.NotValidf("outbox transport with %s store", c.Store.Driver)
	}

	if err := c.ChannelMap().Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.Publish.Attempts < 1 {
		return errors.NotValidf("publish attempts %d", c.Publish.Attempts)
	}
	if c.Feed.BatchSize < 1 {
		return errors.NotValidf("feed batch_size %d", c.Feed.BatchSize)
	}
	return nil
}

// Deferred reports whether publication is left to a change feed consumer.
func (c *Config) Deferred() bool {
	return c.Topology == TopologyStream
}

// ChannelMap returns the routing table for the configured topology.
func (c *Config) ChannelMap() routing.ChannelMap {
	switch c.Topology {
	case TopologyTopic, TopologyBus:
		return routing.Shared(c.SharedChannel)
	}
	return routing.PerStatus(map[domain.Status]string{
		domain.StatusReceived:   c.Channels.Received,
		domain.StatusInProgress: c.Channels.InProgress,
		domain.StatusCompleted:  c.Channels.Completed,
		domain.StatusCanceled:   c.Channels.Canceled,
	})
}

// RetryPolicy returns the router retry policy.
func (c *Config) RetryPolicy() routing.RetryPolicy {
	p := routing.DefaultRetryPolicy()
	p.Attempts = c.Publish.Attempts
	if c.Publish.Delay > 0 {
		p.Delay = c.Publish.Delay
	}
	return p
}

// ConsumerConfig returns the change feed consumer settings.
func (c *Config) ConsumerConfig() cdc.ConsumerConfig {
	return cdc.ConsumerConfig{
		Name:         c.Feed.Consumer,
		PollInterval: c.Feed.PollInterval,
		BatchSize:    c.Feed.BatchSize,
	}
}

// LoggingSpec returns log_level as a loggo configuration string. A bare
// level applies to the root logger.
func (c *Config) LoggingSpec() string {
	if c.LogLevel == "" || strings.Contains(c.LogLevel, "=") {
		return c.LogLevel
	}
	return "<root>=" + strings.ToUpper(c.LogLevel)
}
