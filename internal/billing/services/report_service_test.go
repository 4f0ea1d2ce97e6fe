package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/billing/models"
	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

func newTestStore(t *testing.T) *redisstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisstore.New(client)
}

func seedRevenue(t *testing.T, store *redisstore.Store, records []models.RevenueRecord) {
	t.Helper()
	require.NoError(t, store.SetJSON(context.Background(), redisstore.KeyRevenue, records))
}

func atDay(day string) string {
	t, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		panic(err)
	}
	return t.Add(10 * time.Hour).Format(time.RFC3339)
}

func TestGenerateIncludesEndDate(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, zap.NewNop())
	ctx := context.Background()

	seedRevenue(t, store, []models.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 100000, Date: atDay("2026-03-01")},
		{ID: "r2", PatientID: "p2", Total: 200000, Date: atDay("2026-03-10")},
		{ID: "r3", PatientID: "p3", Total: 400000, Date: atDay("2026-03-11")},
	})

	report, err := svc.Generate(ctx, "2026-03-01", "2026-03-10")
	require.NoError(t, err)

	// A record at 10:00 on the end date is inside the range.
	assert.Equal(t, 300000.0, report.Stats.TotalRevenue)
	assert.Equal(t, 10, report.DayCount)
	assert.Equal(t, 30000.0, report.Stats.AvgRevenuePerDay)
}

func TestCalendarDaysIgnoresClockShifts(t *testing.T) {
	// A spring-forward transition inside the range makes the wall-clock
	// span an hour short of 32 days; the calendar count must not flinch.
	zone, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, zone)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, zone)
	require.Less(t, end.Sub(start).Hours(), 32*24.0)
	assert.Equal(t, 32, calendarDays(start, end))
}

func TestGenerateRejectsInvertedRange(t *testing.T) {
	svc := NewReportService(newTestStore(t), zap.NewNop())
	_, err := svc.Generate(context.Background(), "2026-03-10", "2026-03-01")
	assert.ErrorIs(t, err, ErrBadDateRange)
}

func TestGenerateDailyBucketsUpTo31Days(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, zap.NewNop())

	seedRevenue(t, store, []models.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 100000, Date: atDay("2026-03-01")},
		{ID: "r2", PatientID: "p2", Total: 50000, Date: atDay("2026-03-01")},
		{ID: "r3", PatientID: "p3", Total: 200000, Date: atDay("2026-03-31")},
	})

	report, err := svc.Generate(context.Background(), "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	assert.Equal(t, 31, report.DayCount)
	require.Len(t, report.ChartData, 2)
	// Oldest bucket first, day granularity.
	assert.Equal(t, "1/3/2026", report.ChartData[0].Name)
	assert.Equal(t, 150000.0, report.ChartData[0].Revenue)
	assert.Equal(t, "31/3/2026", report.ChartData[1].Name)
}

func TestGenerateMonthlyBucketsPast31Days(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, zap.NewNop())

	seedRevenue(t, store, []models.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 100000, Date: atDay("2026-03-05")},
		{ID: "r2", PatientID: "p2", Total: 200000, Date: atDay("2026-03-20")},
		{ID: "r3", PatientID: "p3", Total: 400000, Date: atDay("2026-04-01")},
	})

	report, err := svc.Generate(context.Background(), "2026-03-01", "2026-04-01")
	require.NoError(t, err)

	assert.Equal(t, 32, report.DayCount)
	require.Len(t, report.ChartData, 2)
	assert.Equal(t, "Tháng 3/2026", report.ChartData[0].Name)
	assert.Equal(t, 300000.0, report.ChartData[0].Revenue)
	assert.Equal(t, "Tháng 4/2026", report.ChartData[1].Name)
	assert.Equal(t, 400000.0, report.ChartData[1].Revenue)
}

func TestGenerateComputesCapitalFromSnapshots(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, zap.NewNop())

	// Seed prices apply: Paracetamol 500mg costs 500 per unit.
	seedRevenue(t, store, []models.RevenueRecord{
		{
			ID: "r1", PatientID: "p1", Total: 107000, Date: atDay("2026-03-01"),
			Prescription: []prescription.Item{
				{DrugName: "Paracetamol 500mg", TotalQuantity: 14},
			},
		},
	})

	report, err := svc.Generate(context.Background(), "2026-03-01", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 7000.0, report.Stats.TotalDrugCapital)
	assert.Equal(t, 100000.0, report.Stats.TotalProfit)
}

func TestDashboard(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

	patients := []consultModels.Patient{
		{ID: "p1", Name: "A", Gender: "Nam", Diagnosis: "Cảm cúm", ConsultationDate: atDayLocal(now, 0)},
		{ID: "p2", Name: "B", Gender: "Nữ", Diagnosis: "Cảm cúm\nGhi chú", ConsultationDate: atDayLocal(now, 0)},
		{ID: "p3", Name: "C", Gender: "Nam", Diagnosis: "Viêm họng cấp", ConsultationDate: atDayLocal(now, -3)},
		{ID: "p4", Name: "D", Gender: "Nam", Diagnosis: "Tăng huyết áp", ConsultationDate: atDayLocal(now, -20)},
	}
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyPatients, patients))
	seedRevenue(t, store, []models.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 150000, Date: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local).Format(time.RFC3339)},
		{ID: "r2", PatientID: "p4", Total: 999999, Date: atDayLocal(now, -20)},
	})

	stats, err := svc.Dashboard(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PatientsToday)
	assert.Equal(t, 150000.0, stats.RevenueToday)
	assert.Equal(t, 3, stats.GenderDistribution["Nam"])
	assert.Equal(t, 1, stats.GenderDistribution["Nữ"])
	require.Len(t, stats.LastSevenDays, 7)
	assert.Equal(t, now.Format("2/1"), stats.LastSevenDays[6].Name)
	assert.Equal(t, 2.0, stats.LastSevenDays[6].Revenue)

	// The diagnosis note line does not split "Cảm cúm" into two entries.
	require.NotEmpty(t, stats.TopDiagnoses)
	assert.Equal(t, "Cảm cúm", stats.TopDiagnoses[0].Name)
	assert.Equal(t, 2.0, stats.TopDiagnoses[0].Revenue)
}

func atDayLocal(now time.Time, daysAgo int) string {
	return now.AddDate(0, 0, daysAgo).Format(time.RFC3339)
}

func TestSetPaymentStatus(t *testing.T) {
	store := newTestStore(t)
	svc := NewRevenueService(store, zap.NewNop())
	ctx := context.Background()

	seedRevenue(t, store, []models.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 100000, PaymentStatus: models.PaymentUnpaid, Date: atDay("2026-03-01")},
	})

	updated, err := svc.SetPaymentStatus(ctx, "r1", models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	_, err = svc.SetPaymentStatus(ctx, "r1", "pending")
	assert.ErrorIs(t, err, ErrBadPaymentStatus)

	_, err = svc.SetPaymentStatus(ctx, "nope", models.PaymentPaid)
	assert.ErrorIs(t, err, ErrRevenueNotFound)
}
