// Command workorder-lint reports string literals used as work order
// statuses.
//
// Usage:
//
//	workorder-lint ./...
//
// See pkg/lint for the rules.
package main

import (
	"github.com/example/workorders/pkg/lint"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
