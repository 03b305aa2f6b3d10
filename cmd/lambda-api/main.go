// Command lambda-api is the API Gateway entry point for the serverless
// deployments. Configuration comes from the environment; see
// internal/config for the variable names.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

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

	lambda.Start(app.Handler.HandleAPIGateway)
}
