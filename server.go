package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/ledger"
	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"bitbucket.org/barakasoft/wholesale_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter is a simple fixed-window limiter backed by Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

func ledgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := ledger.ParseKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown ledger kind"})
			return
		}
		entityId, err := strconv.Atoi(c.Param("entityId"))
		if err != nil || entityId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id"})
			return
		}
		businessId, err := parseIntParam(c.Query("business"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business"})
			return
		}
		dateFrom, err := utils.ParseDateParam(c.Query("date_from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
			return
		}
		dateTo, err := utils.ParseDateParam(c.Query("date_to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
			return
		}

		ctx := c.Request.Context()
		var result *ledger.Result
		if businessId == 0 {
			result, err = ledger.BuildConsolidatedLedger(ctx, kind, entityId, dateFrom, dateTo)
		} else {
			result, err = ledger.BuildLedger(ctx, kind, businessId, entityId, dateFrom, dateTo)
		}
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func partyBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := parseIntParam(c.Query("business"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business"})
			return
		}
		dateTo, err := utils.ParseDateParam(c.Query("date_to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
			return
		}
		excludeSo, err := parseIntListParam(c.Query("exclude_so"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exclude_so"})
			return
		}
		excludePo, err := parseIntListParam(c.Query("exclude_po"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exclude_po"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		q := db.Where("is_deleted = 0")
		switch strings.ToUpper(strings.TrimSpace(c.Query("kind"))) {
		case "":
			// all parties
		case string(models.PartyTypeCustomer):
			q = q.Where("type IN ?", []models.PartyType{models.PartyTypeCustomer, models.PartyTypeBoth})
		case string(models.PartyTypeVendor):
			q = q.Where("type IN ?", []models.PartyType{models.PartyTypeVendor, models.PartyTypeBoth})
		case string(models.PartyTypeBoth):
			q = q.Where("type = ?", models.PartyTypeBoth)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}

		var parties []*models.Party
		if err := q.Order("display_name, id").Find(&parties).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		opts := models.BalanceOptions{
			BusinessId:              businessId,
			ExcludeSalesOrderIds:    excludeSo,
			ExcludePurchaseOrderIds: excludePo,
			DateTo:                  dateTo,
		}
		if err := models.GetPartyBalances(c.Request.Context(), parties, opts); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"parties": parties})
	}
}

func businessSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := strconv.Atoi(c.Param("businessId"))
		if err != nil || businessId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
			return
		}
		summary, err := models.GetBusinessSummary(c.Request.Context(), businessId)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func recalculateBusinessSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := strconv.Atoi(c.Param("businessId"))
		if err != nil || businessId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
			return
		}
		ctx := c.Request.Context()
		if _, err := models.GetBusinessById(ctx, businessId); err != nil {
			respondLedgerError(c, err)
			return
		}

		lock, err := utils.BusinessLock(ctx, businessId, "summary", "server", "recalculateBusinessSummaryHandler")
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "business is busy; try again"})
			return
		}
		summary, err := models.UpdateBusinessSummary(ctx, businessId)
		if lock != nil {
			_ = lock.Release(ctx)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		c.JSON(http.StatusOK, gin.H{"summary": summary, "correlation_id": cid})
	}
}

func summaryStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := models.GetSummaryStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func summaryStatsDriftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		drift, err := workflow.CheckSummaryDrift(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"drift": drift, "clean": drift.IsZero()})
	}
}

func recalculateSummaryStatsHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := workflow.RecalculateSummaryStats(c.Request.Context(), logger)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, utils.ErrorInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_to must not be earlier than date_from"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseIntParam(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseIntListParam(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated). In non-production, allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/ledgers/:kind/:entityId", ledgerHandler())
	r.GET("/party-balances", partyBalancesHandler())
	r.GET("/business-summaries/:businessId", businessSummaryHandler())
	r.POST("/business-summaries/:businessId/recalculate", recalculateBusinessSummaryHandler())
	r.GET("/summary-stats", summaryStatsHandler())
	r.GET("/summary-stats/drift", summaryStatsDriftHandler())
	r.POST("/summary-stats/recalculate", recalculateSummaryStatsHandler(logger))
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow disabling it on
	// startup and running it as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that ended with errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware checks the per-IP request count for the window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
