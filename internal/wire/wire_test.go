package wire

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"

	"github.com/example/workorders/internal/config"
	"github.com/example/workorders/internal/ingress"
)

func localConfig(t *testing.T, topology config.Topology) *config.Config {
	cfg := config.Default()
	cfg.Topology = topology
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "wire_test.db")
	if topology == config.TopologyTopic || topology == config.TopologyBus {
		cfg.SharedChannel = "workorders"
	}
	return cfg
}

const createBody = `{"description":"Mount sign","deliveryDate":"2025-02-14T12:00:00Z","status":"received"}`

func TestDirectPublishesInline(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	app, err := New(ctx, localConfig(t, config.TopologyDirect))
	c.Assert(err, qt.IsNil)
	defer app.Close()

	resp := app.Handler.Handle(ctx, ingress.Request{Method: http.MethodPost, Body: []byte(createBody)})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	msgs, err := app.SQLite.Outbox().Messages(ctx, "received")
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 1)
}

func TestStreamDefersToConsumer(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	app, err := New(ctx, localConfig(t, config.TopologyStream))
	c.Assert(err, qt.IsNil)
	defer app.Close()
	c.Assert(app.Service.Strategy().Name(), qt.Equals, "deferred")

	resp := app.Handler.Handle(ctx, ingress.Request{Method: http.MethodPost, Body: []byte(createBody)})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	msgs, err := app.SQLite.Outbox().Messages(ctx, "")
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 0)

	consumer, err := app.Consumer()
	c.Assert(err, qt.IsNil)
	res, err := consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Published, qt.Equals, 1)

	msgs, err = app.SQLite.Outbox().Messages(ctx, "received")
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 1)
}

func TestSharedTopologiesMarkEnvelopes(t *testing.T) {
	for _, topology := range []config.Topology{config.TopologyTopic, config.TopologyBus} {
		t.Run(string(topology), func(t *testing.T) {
			c := qt.New(t)
			ctx := context.Background()
			app, err := New(ctx, localConfig(t, topology))
			c.Assert(err, qt.IsNil)
			defer app.Close()

			resp := app.Handler.Handle(ctx, ingress.Request{Method: http.MethodPost, Body: []byte(createBody)})
			c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

			msgs, err := app.SQLite.Outbox().Messages(ctx, "workorders")
			c.Assert(err, qt.IsNil)
			c.Assert(msgs, qt.HasLen, 1)
			c.Assert(msgs[0].Envelope.RoutingAttribute, qt.Equals, "received")
		})
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	c := qt.New(t)
	cfg := localConfig(t, config.TopologyTopic)
	cfg.SharedChannel = ""

	_, err := New(context.Background(), cfg)
	c.Assert(errors.Is(err, errors.NotValid), qt.IsTrue)
}

func TestDynamoDBHasNoLocalConsumer(t *testing.T) {
	c := qt.New(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	cfg := config.Default()
	cfg.Transport = config.TransportAWS
	cfg.Store.Driver = config.DriverDynamoDB
	cfg.Store.Table = "WorkOrders"
	cfg.AWS = config.AWSConfig{Region: "us-east-1", Endpoint: "http://localhost:4566"}

	app, err := New(context.Background(), cfg)
	c.Assert(err, qt.IsNil)
	defer app.Close()
	c.Assert(app.SQLite, qt.IsNil)

	_, err = app.Consumer()
	c.Assert(errors.Is(err, errors.NotSupported), qt.IsTrue)
}
