package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/workflow"
	"github.com/sirupsen/logrus"
)

// Full repair sweep: party cached balances, per-business summaries, then
// the global singleton. Run when drift is suspected.
func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	logger := logrus.New()

	if err := workflow.RebuildAll(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("aggregate rebuild complete")
}
