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

	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	"github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	receptionModels "github.com/phongkham/phongkham-backend/internal/reception/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

func newTestService(t *testing.T) (*PatientService, *redisstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redisstore.New(client)
	return NewPatientService(store, zap.NewNop()), store
}

func TestSaveRequiresName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Save(context.Background(), models.Patient{Name: "  "}, billingModels.PaymentInfo{}, "")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestSaveCreatesPatientAndRevenue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Save(ctx, models.Patient{
		Name:      "Nguyễn Văn An",
		Age:       "45",
		Diagnosis: "Tăng huyết áp",
		Prescription: []prescription.Item{
			{DrugName: "Paracetamol 500mg", Morning: "1", Evening: "1", Duration: 7},
		},
	}, billingModels.PaymentInfo{ConsultationFee: 100000, PaymentStatus: billingModels.PaymentPaid}, "")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.NotEmpty(t, result.Patient.ID)
	assert.Equal(t, "Nam", result.Patient.Gender)
	assert.NotEmpty(t, result.Patient.ConsultationDate)

	// Seed prices make Paracetamol 500 per unit; 14 units derived.
	assert.Equal(t, 14, result.Patient.Prescription[0].TotalQuantity)
	assert.Equal(t, 7000.0, result.Revenue.DrugCost)
	assert.Equal(t, 107000.0, result.Revenue.Total)
	assert.Equal(t, billingModels.PaymentPaid, result.Revenue.PaymentStatus)
	assert.Equal(t, result.Patient.ID, result.Revenue.PatientID)
}

func TestSaveUpdatesExistingRevenueRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, models.Patient{Name: "Trần Thị Bình"},
		billingModels.PaymentInfo{ConsultationFee: 100000}, "")
	require.NoError(t, err)

	// Saving the same visit again must not grow the revenue collection.
	second, err := svc.Save(ctx, first.Patient,
		billingModels.PaymentInfo{ConsultationFee: 150000, PaymentStatus: billingModels.PaymentPaid}, "")
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Revenue.ID, second.Revenue.ID)
	assert.Equal(t, 150000.0, second.Revenue.Total)

	records, err := svc.loadRevenue(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaveReturnsTheSavedPatientsRevenue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// An older visit already on file; the fresh save sorts before it.
	older, err := svc.Save(ctx, models.Patient{
		Name:             "Bệnh nhân cũ",
		ConsultationDate: time.Now().AddDate(0, -1, 0).Format(time.RFC3339),
	}, billingModels.PaymentInfo{ConsultationFee: 111}, "")
	require.NoError(t, err)

	fresh, err := svc.Save(ctx, models.Patient{Name: "Bệnh nhân mới"},
		billingModels.PaymentInfo{ConsultationFee: 222}, "")
	require.NoError(t, err)

	assert.Equal(t, fresh.Patient.ID, fresh.Revenue.PatientID)
	assert.Equal(t, 222.0, fresh.Revenue.Total)
	assert.NotEqual(t, older.Revenue.ID, fresh.Revenue.ID)
}

func TestSaveRejectsBadPaymentStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Save(context.Background(), models.Patient{Name: "Lê Văn Cường"},
		billingModels.PaymentInfo{PaymentStatus: "pending"}, "")
	assert.Error(t, err)
}

func TestSaveAddsNewDiagnosis(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.Save(ctx, models.Patient{Name: "Phạm Thị Dung", Diagnosis: "Zona thần kinh"},
		billingModels.PaymentInfo{}, "")
	require.NoError(t, err)
	assert.Equal(t, "Zona thần kinh", result.NewDiagnosis)

	var diagnoses []string
	found, err := store.GetJSON(ctx, redisstore.KeyDiagnoses, &diagnoses)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, diagnoses, "Zona thần kinh")

	// Case-insensitive repeat does not add again.
	result, err = svc.Save(ctx, models.Patient{Name: "Phạm Thị Dung", Diagnosis: "zona thần kinh"},
		billingModels.PaymentInfo{}, "")
	require.NoError(t, err)
	assert.Empty(t, result.NewDiagnosis)
}

func TestSaveRemovesReceptionEntry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	queue := []receptionModels.ReceptionPatient{
		{ID: "r1", Name: "Hoàng Văn Em", ReceptionDate: time.Now().Format(time.RFC3339)},
		{ID: "r2", Name: "Vũ Thị Giang", ReceptionDate: time.Now().Format(time.RFC3339)},
	}
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyReception, queue))

	_, err := svc.Save(ctx, models.Patient{Name: "Hoàng Văn Em"}, billingModels.PaymentInfo{}, "r1")
	require.NoError(t, err)

	var remaining []receptionModels.ReceptionPatient
	_, err = store.GetJSON(ctx, redisstore.KeyReception, &remaining)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "r2", remaining[0].ID)
}

func TestDeleteCascadesRevenue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Save(ctx, models.Patient{Name: "Đỗ Văn Hùng"},
		billingModels.PaymentInfo{ConsultationFee: 100000}, "")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, result.Patient.ID)
	require.NoError(t, err)

	patients, err := svc.loadPatients(ctx)
	require.NoError(t, err)
	assert.Empty(t, patients)

	records, err := svc.loadRevenue(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = svc.Delete(ctx, result.Patient.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestListRetentionAndSearch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	patients := []models.Patient{
		{ID: "p1", Name: "Nguyễn Văn An", ConsultationDate: now.Format(time.RFC3339)},
		{ID: "p2", Name: "Trần Thị Bình", ConsultationDate: now.AddDate(0, -8, 0).Format(time.RFC3339)},
		{ID: "p3", Name: "Nguyễn Văn An", ConsultationDate: now.AddDate(-2, 0, 0).Format(time.RFC3339)},
	}
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyPatients, patients))

	all, err := svc.List(ctx, "all", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "p1", all[0].ID)

	recent, err := svc.List(ctx, "6m", "")
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	year, err := svc.List(ctx, "12m", "")
	require.NoError(t, err)
	assert.Len(t, year, 2)

	named, err := svc.List(ctx, "all", "nguyễn")
	require.NoError(t, err)
	assert.Len(t, named, 2)
}

func TestHistoryMatchesByIdentityTuple(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	patients := []models.Patient{
		{ID: "p1", Name: "Nguyễn Văn An", Age: "45", Gender: "Nam", ConsultationDate: now.Format(time.RFC3339)},
		{ID: "p2", Name: "nguyễn văn an", Age: "45", Gender: "Nam", ConsultationDate: now.AddDate(0, -1, 0).Format(time.RFC3339)},
		{ID: "p3", Name: "Nguyễn Văn An", Age: "12", Gender: "Nam", ConsultationDate: now.AddDate(0, -2, 0).Format(time.RFC3339)},
	}
	require.NoError(t, store.SetJSON(ctx, redisstore.KeyPatients, patients))

	// Two distinct persons share the name: the 45-year-old and the child.
	persons, err := svc.HistoryPersons(ctx, "Nguyễn Văn An")
	require.NoError(t, err)
	assert.Len(t, persons, 2)

	visits, err := svc.HistoryForPerson(ctx, "Nguyễn Văn An", "45", "Nam")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "p1", visits[0].ID)
	assert.Equal(t, "p2", visits[1].ID)
}
