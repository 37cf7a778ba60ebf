package ledger

import (
	"testing"
	"time"

	"bitbucket.org/barakasoft/wholesale_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testStaff(salary string, start time.Time) *models.Staff {
	return &models.Staff{
		ID:            1,
		BusinessId:    1,
		FullName:      "Ko Aung",
		MonthlySalary: dec(salary),
		SalaryStart:   &start,
	}
}

func TestAccrualRowsElapsedMonths(t *testing.T) {
	staff := testStaff("30000", day(2024, 1, 1))
	rows := accrualRows(staff, Window{}, day(2024, 3, 15))

	require.Len(t, rows, 3)
	total := decimal.Zero
	for _, r := range rows {
		require.True(t, r.Dr.IsZero())
		require.Equal(t, "SalaryAccrual", r.Source)
		total = total.Add(r.Cr)
	}
	require.True(t, total.Equal(dec("90000")))

	require.Equal(t, "ACCRUAL Jan 2024", rows[0].Ref)
	require.Equal(t, day(2024, 1, 1), rows[0].Date)
	require.Equal(t, "ACCRUAL Feb 2024", rows[1].Ref)
	require.Equal(t, "ACCRUAL Mar 2024", rows[2].Ref)
	require.Equal(t, day(2024, 3, 1), rows[2].Date)
}

func TestAccrualRowsMidMonthStart(t *testing.T) {
	// Starting mid-month still accrues that month.
	staff := testStaff("1000", day(2024, 1, 20))
	rows := accrualRows(staff, Window{}, day(2024, 2, 5))
	require.Len(t, rows, 2)
}

func TestAccrualRowsWindowCapsAtTo(t *testing.T) {
	staff := testStaff("30000", day(2024, 1, 1))
	to := day(2024, 2, 10)
	rows := accrualRows(staff, Window{To: &to}, day(2024, 6, 1))
	require.Len(t, rows, 2)
}

func TestAccrualRowsNoSalaryStart(t *testing.T) {
	staff := &models.Staff{ID: 1, MonthlySalary: dec("30000")}
	require.Nil(t, accrualRows(staff, Window{}, day(2024, 3, 15)))
}

func TestAccrualRowsNonPositiveSalary(t *testing.T) {
	staff := testStaff("0", day(2024, 1, 1))
	require.Nil(t, accrualRows(staff, Window{}, day(2024, 3, 15)))
}
