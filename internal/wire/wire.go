// Package wire builds the process-wide collaborators from configuration
// and tears them down again.
package wire

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/cdc"
	"github.com/example/workorders/internal/config"
	"github.com/example/workorders/internal/ingress"
	"github.com/example/workorders/internal/observability"
	"github.com/example/workorders/internal/routing"
	"github.com/example/workorders/internal/service"
	"github.com/example/workorders/internal/storage"
	"github.com/example/workorders/internal/storage/dynamodb"
	"github.com/example/workorders/internal/storage/sqlite"
)

var logger = loggo.GetLogger("workorders.wire")

// App holds everything a process needs. Build it once with New and
// release it with Close.
type App struct {
	Config  *config.Config
	Metrics *observability.Metrics
	Store   storage.Store
	Router  *routing.Router
	Service *service.WorkOrderService
	Handler *ingress.Handler
	Adapter *cdc.Adapter

	// SQLite is set when the store driver is sqlite.
	SQLite *sqlite.SQLiteStorage
}

// New validates cfg and constructs the collaborators it describes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid configuration")
	}
	if err := loggo.ConfigureLoggers(cfg.LoggingSpec()); err != nil {
		return nil, errors.Annotatef(err, "configuring loggers %q", cfg.LogLevel)
	}

	app := &App{
		Config:  cfg,
		Metrics: observability.NewMetrics(),
	}

	var awsCfg *aws.Config
	if cfg.Store.Driver == config.DriverDynamoDB || cfg.Transport == config.TransportAWS {
		c, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, errors.Trace(err)
		}
		awsCfg = &c
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, errors.Annotatef(err, "opening %s", cfg.Store.SQLitePath)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, errors.Annotate(err, "migrating")
		}
		app.SQLite = store
		app.Store = store
	case config.DriverDynamoDB:
		client := awsdynamodb.NewFromConfig(*awsCfg, func(o *awsdynamodb.Options) {
			o.BaseEndpoint = endpoint(cfg.AWS)
		})
		app.Store = dynamodb.New(client, cfg.Store.Table)
	}

	publisher, err := app.publisher(awsCfg)
	if err != nil {
		app.Close()
		return nil, errors.Trace(err)
	}

	app.Router = routing.NewRouter(cfg.ChannelMap(), publisher,
		routing.WithRetryPolicy(cfg.RetryPolicy()),
		routing.WithMetrics(app.Metrics),
	)

	var strategy service.PublishStrategy = service.NewInlinePublish(app.Router)
	if cfg.Deferred() {
		strategy = service.DeferredPublish{}
	}
	app.Service = service.NewWorkOrderService(app.Store, strategy, service.WithMetrics(app.Metrics))
	app.Handler = ingress.NewHandler(app.Service)
	app.Adapter = cdc.NewAdapter(app.Router, app.Metrics)

	logger.Infof("topology=%s transport=%s store=%s strategy=%s",
		cfg.Topology, cfg.Transport, cfg.Store.Driver, strategy.Name())
	return app, nil
}

func (a *App) publisher(awsCfg *aws.Config) (routing.Publisher, error) {
	cfg := a.Config
	if cfg.Transport == config.TransportOutbox {
		if a.SQLite == nil {
			return nil, errors.NotValidf("outbox transport without sqlite store")
		}
		return a.SQLite.Outbox(), nil
	}

	switch cfg.Topology {
	case config.TopologyTopic:
		return routing.NewSNSPublisher(sns.NewFromConfig(*awsCfg, func(o *sns.Options) {
			o.BaseEndpoint = endpoint(cfg.AWS)
		})), nil
	case config.TopologyBus:
		return routing.NewEventBridgePublisher(eventbridge.NewFromConfig(*awsCfg, func(o *eventbridge.Options) {
			o.BaseEndpoint = endpoint(cfg.AWS)
		})), nil
	default:
		return routing.NewSQSPublisher(sqs.NewFromConfig(*awsCfg, func(o *sqs.Options) {
			o.BaseEndpoint = endpoint(cfg.AWS)
		})), nil
	}
}

// Consumer returns a change feed consumer over the local sqlite change
// log. DynamoDB deployments receive their stream through Lambda instead.
func (a *App) Consumer() (*cdc.Consumer, error) {
	if a.SQLite == nil {
		return nil, errors.NotSupportedf("change feed consumer for %s store", a.Config.Store.Driver)
	}
	return cdc.NewConsumer(a.SQLite, a.Adapter, a.Config.ConsumerConfig(), clock.WallClock, a.Metrics), nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func loadAWSConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	// Local emulators accept any credentials; supply some when none are set.
	if c.Endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Annotate(err, "loading AWS configuration")
	}
	return cfg, nil
}

func endpoint(c config.AWSConfig) *string {
	if c.Endpoint == "" {
		return nil
	}
	return aws.String(c.Endpoint)
}
