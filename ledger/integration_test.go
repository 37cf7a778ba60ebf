package ledger_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/config"
	"bitbucket.org/barakasoft/wholesale_backend/ledger"
	"bitbucket.org/barakasoft/wholesale_backend/models"
	"bitbucket.org/barakasoft/wholesale_backend/utils"
	"bitbucket.org/barakasoft/wholesale_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Full-stack behavior against real MySQL and Redis containers. The data
// setup goes through normal GORM writes, so every mutation hook fires
// exactly as in production.
func TestLedgerAndAggregatesEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "wholesale_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()

	alpha := &models.Business{Name: "Alpha Trading", IsActive: utils.NewTrue()}
	if err := db.Create(alpha).Error; err != nil {
		t.Fatalf("create business alpha: %v", err)
	}
	beta := &models.Business{Name: "Beta Trading", IsActive: utils.NewTrue()}
	if err := db.Create(beta).Error; err != nil {
		t.Fatalf("create business beta: %v", err)
	}

	openingDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	customer := &models.Party{
		Type:               models.PartyTypeCustomer,
		DisplayName:        "Daw Mya",
		OpeningBalance:     decimal.NewFromInt(1000),
		OpeningBalanceSide: models.SideDr,
		OpeningBalanceDate: &openingDate,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	supplier := &models.Party{
		Type:               models.PartyTypeVendor,
		DisplayName:        "U Hla Supply",
		OpeningBalance:     decimal.NewFromInt(400),
		OpeningBalanceSide: models.SideCr,
		OpeningBalanceDate: &openingDate,
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}

	so := &models.SalesOrder{
		BusinessId: alpha.ID,
		CustomerId: customer.ID,
		Status:     models.OrderStatusOpen,
		Items: []models.SalesOrderItem{
			{ProductName: "Rice Bag", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(250)},
		},
	}
	so.ComputeTotals()
	if err := db.Create(so).Error; err != nil {
		t.Fatalf("create sales order: %v", err)
	}

	receipt := &models.Payment{
		BusinessId:    alpha.ID,
		PartyId:       customer.ID,
		Direction:     models.PaymentDirectionIn,
		PaymentMethod: models.PaymentMethodCash,
		Amount:        decimal.NewFromInt(200),
	}
	if err := db.Create(receipt).Error; err != nil {
		t.Fatalf("create receipt payment: %v", err)
	}
	if err := db.Create(&models.SalesOrderReceipt{
		SalesOrderId: so.ID,
		PaymentId:    receipt.ID,
		Amount:       decimal.NewFromInt(200),
	}).Error; err != nil {
		t.Fatalf("create sales order receipt: %v", err)
	}

	po := &models.PurchaseOrder{
		BusinessId: alpha.ID,
		SupplierId: supplier.ID,
		Status:     models.OrderStatusOpen,
		Items: []models.PurchaseOrderItem{
			{ProductName: "Oil Tin", Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(100)},
		},
	}
	po.ComputeTotals()
	if err := db.Create(po).Error; err != nil {
		t.Fatalf("create purchase order: %v", err)
	}

	bank := &models.BankAccount{
		BusinessId:  alpha.ID,
		Name:        "KBZ Main",
		AccountType: models.BankAccountTypeBank,
		IsActive:    utils.NewTrue(),
	}
	if err := db.Create(bank).Error; err != nil {
		t.Fatalf("create bank account: %v", err)
	}
	partyId := supplier.ID
	if err := db.Create(&models.BankMovement{
		BusinessId:    alpha.ID,
		BankAccountId: bank.ID,
		PartyId:       &partyId,
		MovementType:  models.BankMovementTypeChequePayment,
		Amount:        decimal.NewFromInt(150),
		MovementDate:  time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("create cheque movement: %v", err)
	}

	// A cancelled order and a pending cheque must stay invisible on both
	// paths.
	cancelled := &models.SalesOrder{
		BusinessId: alpha.ID,
		CustomerId: customer.ID,
		Status:     models.OrderStatusCancelled,
		Items: []models.SalesOrderItem{
			{ProductName: "Ghost", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(999)},
		},
	}
	cancelled.ComputeTotals()
	if err := db.Create(cancelled).Error; err != nil {
		t.Fatalf("create cancelled order: %v", err)
	}
	if err := db.Create(&models.Payment{
		BusinessId:    alpha.ID,
		PartyId:       customer.ID,
		Direction:     models.PaymentDirectionIn,
		PaymentMethod: models.PaymentMethodBank,
		BankAccountId: &bank.ID,
		ChequeStatus:  models.ChequeStatusPending,
		Amount:        decimal.NewFromInt(5000),
	}).Error; err != nil {
		t.Fatalf("create pending cheque payment: %v", err)
	}

	t.Run("EquivalenceInvariant", func(t *testing.T) {
		cases := []struct {
			kind       ledger.Kind
			businessId int
			party      *models.Party
		}{
			{ledger.KindCustomer, alpha.ID, customer},
			{ledger.KindSupplier, alpha.ID, supplier},
			{ledger.KindCustomer, beta.ID, customer},
		}
		for _, tc := range cases {
			result, err := ledger.BuildLedger(ctx, tc.kind, tc.businessId, tc.party.ID, nil, nil)
			if err != nil {
				t.Fatalf("BuildLedger(%s, business=%d): %v", tc.kind, tc.businessId, err)
			}
			parties := []*models.Party{{ID: tc.party.ID}}
			if err := db.First(parties[0]).Error; err != nil {
				t.Fatalf("reload party: %v", err)
			}
			if err := models.GetPartyBalances(ctx, parties, models.BalanceOptions{BusinessId: tc.businessId}); err != nil {
				t.Fatalf("GetPartyBalances: %v", err)
			}
			if !result.Totals.Balance.Equal(parties[0].NetBalance) {
				t.Fatalf("equivalence broken for party=%d business=%d: ledger=%s aggregator=%s",
					tc.party.ID, tc.businessId, result.Totals.Balance, parties[0].NetBalance)
			}
		}
	})

	t.Run("ConsolidationCountsOpeningOnce", func(t *testing.T) {
		consolidated, err := ledger.BuildConsolidatedLedger(ctx, ledger.KindCustomer, customer.ID, nil, nil)
		if err != nil {
			t.Fatalf("BuildConsolidatedLedger: %v", err)
		}
		openings := 0
		for _, row := range consolidated.Rows {
			if row.Source == ledger.SourceOpening {
				openings++
			}
		}
		if openings != 1 {
			t.Fatalf("expected exactly one opening row, got %d", openings)
		}

		perBusiness := decimal.Zero
		for _, businessId := range []int{alpha.ID, beta.ID} {
			p := &models.Party{ID: customer.ID}
			if err := db.First(p).Error; err != nil {
				t.Fatalf("reload party: %v", err)
			}
			if err := models.GetPartyBalances(ctx, []*models.Party{p}, models.BalanceOptions{BusinessId: businessId}); err != nil {
				t.Fatalf("GetPartyBalances(business=%d): %v", businessId, err)
			}
			perBusiness = perBusiness.Add(p.NetBalance)
		}
		if !perBusiness.Equal(consolidated.Totals.Balance) {
			t.Fatalf("per-business sum %s != consolidated balance %s", perBusiness, consolidated.Totals.Balance)
		}
	})

	t.Run("CachedBalanceTracksAggregator", func(t *testing.T) {
		var p models.Party
		if err := db.Where("id = ?", customer.ID).Take(&p).Error; err != nil {
			t.Fatalf("reload customer: %v", err)
		}
		fresh := &models.Party{ID: customer.ID}
		if err := db.First(fresh).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		if err := models.GetPartyBalances(ctx, []*models.Party{fresh}, models.BalanceOptions{}); err != nil {
			t.Fatalf("GetPartyBalances: %v", err)
		}
		if !p.CachedBalance.Equal(fresh.NetBalance) {
			t.Fatalf("cached balance %s diverged from aggregator %s", p.CachedBalance, fresh.NetBalance)
		}
	})

	t.Run("MaintainerIdempotence", func(t *testing.T) {
		first, err := models.UpdateBusinessSummary(ctx, alpha.ID)
		if err != nil {
			t.Fatalf("UpdateBusinessSummary(1st): %v", err)
		}
		second, err := models.UpdateBusinessSummary(ctx, alpha.ID)
		if err != nil {
			t.Fatalf("UpdateBusinessSummary(2nd): %v", err)
		}
		if !first.CashInHand.Equal(second.CashInHand) ||
			!first.BankBalance.Equal(second.BankBalance) ||
			!first.InventoryValue.Equal(second.InventoryValue) ||
			!first.TotalReceivables.Equal(second.TotalReceivables) ||
			!first.TotalPayables.Equal(second.TotalPayables) {
			t.Fatalf("repeated recompute changed values: %+v vs %+v", first, second)
		}
	})

	t.Run("SingletonMatchesRecomputeForSameSignWrites", func(t *testing.T) {
		drift, err := workflow.CheckSummaryDrift(ctx)
		if err != nil {
			t.Fatalf("CheckSummaryDrift: %v", err)
		}
		if !drift.IsZero() {
			t.Fatalf("incremental deltas drifted from recomputed truth: %+v", drift)
		}
	})

	t.Run("PaymentDirectionEditMovesBothTotals", func(t *testing.T) {
		outgoing := &models.Payment{
			BusinessId:    alpha.ID,
			PartyId:       supplier.ID,
			Direction:     models.PaymentDirectionOut,
			PaymentMethod: models.PaymentMethodBank,
			BankAccountId: &bank.ID,
			Amount:        decimal.NewFromInt(500),
		}
		if err := db.Create(outgoing).Error; err != nil {
			t.Fatalf("create outgoing payment: %v", err)
		}

		before, err := models.GetSummaryStats(ctx)
		if err != nil {
			t.Fatalf("GetSummaryStats(before): %v", err)
		}

		var edited models.Payment
		if err := db.Where("id = ?", outgoing.ID).Take(&edited).Error; err != nil {
			t.Fatalf("reload payment: %v", err)
		}
		edited.Direction = models.PaymentDirectionIn
		if err := db.Save(&edited).Error; err != nil {
			t.Fatalf("save edited payment: %v", err)
		}

		after, err := models.GetSummaryStats(ctx)
		if err != nil {
			t.Fatalf("GetSummaryStats(after): %v", err)
		}

		recDiff := after.TotalReceivables.Sub(before.TotalReceivables)
		payDiff := after.TotalPayables.Sub(before.TotalPayables)
		if !recDiff.Equal(decimal.NewFromInt(-500)) {
			t.Fatalf("expected receivables to fall by 500, moved by %s", recDiff)
		}
		if !payDiff.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("expected payables to rise by 500 (outgoing settlement removed), moved by %s", payDiff)
		}
	})

	// The direction edit moved money across the supplier's settled side
	// while the supplier's net balance stayed negative: the per-document
	// deltas classify by payment direction, the recompute by party sign.
	// That divergence is exactly what the drift check exists to expose,
	// and the full rebuild is the documented repair.
	t.Run("DriftDetectedAfterCrossSideEdit", func(t *testing.T) {
		drift, err := workflow.CheckSummaryDrift(ctx)
		if err != nil {
			t.Fatalf("CheckSummaryDrift: %v", err)
		}
		if drift.IsZero() {
			t.Fatalf("expected detectable drift after cross-side payment edit")
		}
		if !drift.ReceivablesDiff.Equal(decimal.NewFromInt(-500)) {
			t.Fatalf("expected receivables drift of -500, got %s", drift.ReceivablesDiff)
		}
		if !drift.PayablesDiff.Equal(decimal.NewFromInt(-500)) {
			t.Fatalf("expected payables drift of -500, got %s", drift.PayablesDiff)
		}
	})

	t.Run("RebuildAllConverges", func(t *testing.T) {
		if err := workflow.RebuildAll(ctx, logrus.New()); err != nil {
			t.Fatalf("RebuildAll: %v", err)
		}
		drift, err := workflow.CheckSummaryDrift(ctx)
		if err != nil {
			t.Fatalf("CheckSummaryDrift: %v", err)
		}
		if !drift.IsZero() {
			t.Fatalf("rebuild left drift: %+v", drift)
		}
	})

	t.Run("ConsolidatedStaffRejected", func(t *testing.T) {
		staffStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		staff := &models.Staff{
			BusinessId:    alpha.ID,
			FullName:      "Ma Thin",
			MonthlySalary: decimal.NewFromInt(30000),
			SalaryStart:   &staffStart,
		}
		if err := db.Create(staff).Error; err != nil {
			t.Fatalf("create staff: %v", err)
		}
		if _, err := ledger.BuildConsolidatedLedger(ctx, ledger.KindStaff, staff.ID, nil, nil); err != utils.ErrorRecordNotFound {
			t.Fatalf("expected ErrorRecordNotFound for consolidated staff ledger, got %v", err)
		}
		result, err := ledger.BuildLedger(ctx, ledger.KindStaff, alpha.ID, staff.ID, nil, nil)
		if err != nil {
			t.Fatalf("BuildLedger(staff): %v", err)
		}
		if len(result.Rows) == 0 {
			t.Fatalf("expected accrual rows for staff ledger")
		}
	})
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("wholesale-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("wholesale-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=wholesale_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
