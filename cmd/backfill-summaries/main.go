package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	logger := logrus.New()

	if err := workflow.BackfillBusinessSummaries(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("business summary backfill complete")
}
