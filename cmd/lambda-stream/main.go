// Command lambda-stream routes work orders from a DynamoDB stream. The API
// function runs with WORKORDERS_TOPOLOGY=stream so it only persists; this
// function publishes each inserted or modified record.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/workorders/internal/cdc"
	"github.com/example/workorders/internal/config"
	"github.com/example/workorders/internal/wire"
)

func main() {
	ctx := context.Background()
	cfg, err := config.FromEnv(config.Lambda())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app, err := wire.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	lambda.Start(cdc.NewStreamHandler(app.Adapter).Handle)
}
