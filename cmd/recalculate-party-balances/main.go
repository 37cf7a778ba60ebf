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

	updated, err := workflow.RecalculatePartyBalances(context.Background(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recalculate failed after %d parties: %v\n", updated, err)
		os.Exit(1)
	}
	fmt.Printf("recalculated cached balances for %d parties\n", updated)
}
