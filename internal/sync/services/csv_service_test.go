package services

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

func newTestCSVService(t *testing.T) (*CSVService, *redisstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redisstore.New(client)
	return NewCSVService(store, zap.NewNop()), store
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	assert.Equal(t, "danh-sach-benh-nhan_2026-03-10.csv", ExportFilename(at))
}

func TestExportWritesBOMHeaderAndRows(t *testing.T) {
	svc, store := newTestCSVService(t)
	ctx := context.Background()

	patients := []consultModels.Patient{
		{
			ID: "p1", Name: "Nguyễn Văn An", Age: "45", Gender: "Nam",
			Address:          "12 Lê Lợi, Huế",
			ConsultationDate: "2026-03-01T10:00:00+07:00",
			Vitals:           consultModels.Vitals{Pulse: "80", BloodPressure: "120/80"},
			Symptoms:         "Ho, sốt",
			Diagnosis:        "Cảm cúm",
			Prescription: []prescription.Item{
				{DrugName: "Paracetamol 500mg", TotalQuantity: 14, Usage: "uống", Unit: "viên"},
			},
		},
	}
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyPatients, patients))
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyRevenue, []billingModels.RevenueRecord{
		{ID: "r1", PatientID: "p1", Total: 100000},
		{ID: "r2", PatientID: "p1", Total: 50000},
	}))

	content, err := svc.Export(ctx)
	require.NoError(t, err)

	text := string(content)
	require.True(t, strings.HasPrefix(text, "\xEF\xBB\xBF"))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\xEF\xBB\xBF")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, csvHeader, rows[0])
	row := rows[1]
	assert.Equal(t, "p1", row[0])
	assert.Equal(t, "Nguyễn Văn An", row[1])
	assert.Equal(t, "120/80", row[7])
	assert.Contains(t, row[12], `"drugName":"Paracetamol 500mg"`)
	// Revenue of the same patient is summed.
	assert.Equal(t, "150000", row[13])
}

func TestImportSkipsExistingIDs(t *testing.T) {
	svc, store := newTestCSVService(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, redisstore.KeyPatients, []consultModels.Patient{
		{ID: "p1", Name: "Nguyễn Văn An"},
	}))

	file := strings.NewReader("\xEF\xBB\xBF" + strings.Join([]string{
		"id,name,age,gender,consultationDate,tongDoanhThu",
		"p1,Nguyễn Văn An,45,Nam,2026-03-01,100000",
		"p2,Trần Thị Bình,30,Nữ,2026-03-02,150000",
		",Không có id,20,Nam,2026-03-03,0",
		"p3,Lê Văn Cường,60,Nam,2026-03-04,0",
	}, "\n"))

	result, err := svc.Import(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	var patients []consultModels.Patient
	_, err = store.GetJSON(ctx, redisstore.KeyPatients, &patients)
	require.NoError(t, err)
	assert.Len(t, patients, 3)

	// Only the row with a positive total produced a revenue record.
	var revenue []billingModels.RevenueRecord
	_, err = store.GetJSON(ctx, redisstore.KeyRevenue, &revenue)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, "p2", revenue[0].PatientID)
	assert.Equal(t, 150000.0, revenue[0].OtherServicesCost)
	assert.Equal(t, 150000.0, revenue[0].Total)
	assert.Equal(t, billingModels.PaymentPaid, revenue[0].PaymentStatus)
	assert.True(t, strings.HasPrefix(revenue[0].ID, "rev-p2-"))
}

func TestImportToleratesMalformedPrescription(t *testing.T) {
	svc, store := newTestCSVService(t)
	ctx := context.Background()

	file := strings.NewReader(strings.Join([]string{
		"id,name,prescription",
		`p1,Nguyễn Văn An,"không phải json"`,
	}, "\n"))

	result, err := svc.Import(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	var patients []consultModels.Patient
	_, err = store.GetJSON(ctx, redisstore.KeyPatients, &patients)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Empty(t, patients[0].Prescription)
}

func TestImportRejectsMissingRequiredColumns(t *testing.T) {
	svc, _ := newTestCSVService(t)

	_, err := svc.Import(context.Background(), strings.NewReader("name,age\nAn,45\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = svc.Import(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}
