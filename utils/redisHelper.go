package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"github.com/bsm/redislock"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// BusinessLock obtains a short-lived advisory lock scoped to one business.
// Batch repair jobs take it so two rebuilds of the same business never
// interleave. The lock is best-effort: callers get an error, not a wait.
func BusinessLock(ctx context.Context, businessId int, lockType string, moduleName string, functionName string) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", businessId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("%s:%d", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for business", businessId, err)
		return nil, errors.New("could not obtain lock for business")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for business", businessId, err)
		return nil, err
	}
	return lock, nil
}
