package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

func newTestDiagnosisService(t *testing.T) *DiagnosisService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewDiagnosisService(redisstore.New(client), zap.NewNop())
}

func TestDiagnosisListSeedsFreshInstall(t *testing.T) {
	svc := newTestDiagnosisService(t)

	list, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, list, "Viêm họng cấp")
	assert.Contains(t, list, "Cảm cúm")
}

func TestDiagnosisListFiltersBySearch(t *testing.T) {
	svc := newTestDiagnosisService(t)

	list, err := svc.List(context.Background(), "viêm")
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for _, d := range list {
		assert.Contains(t, d, "Viêm")
	}
}

func TestDiagnosisAdd(t *testing.T) {
	svc := newTestDiagnosisService(t)
	ctx := context.Background()

	name, err := svc.Add(ctx, "  Viêm xoang  ")
	require.NoError(t, err)
	assert.Equal(t, "Viêm xoang", name)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, list, "Viêm xoang")
	assert.IsIncreasing(t, list)
}

func TestDiagnosisAddRejectsEmptyName(t *testing.T) {
	svc := newTestDiagnosisService(t)

	_, err := svc.Add(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrDiagnosisRequired)
}

func TestDiagnosisAddRejectsDuplicateIgnoringCase(t *testing.T) {
	svc := newTestDiagnosisService(t)

	_, err := svc.Add(context.Background(), "viêm họng cấp")
	assert.ErrorIs(t, err, ErrDiagnosisExists)
}

func TestDiagnosisRename(t *testing.T) {
	svc := newTestDiagnosisService(t)
	ctx := context.Background()

	name, err := svc.Rename(ctx, "Cảm cúm", "Cúm mùa")
	require.NoError(t, err)
	assert.Equal(t, "Cúm mùa", name)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, list, "Cúm mùa")
	assert.NotContains(t, list, "Cảm cúm")
}

func TestDiagnosisRenameCaseOnly(t *testing.T) {
	svc := newTestDiagnosisService(t)

	name, err := svc.Rename(context.Background(), "Cảm cúm", "CẢM CÚM")
	require.NoError(t, err)
	assert.Equal(t, "CẢM CÚM", name)
}

func TestDiagnosisRenameRejectsCollision(t *testing.T) {
	svc := newTestDiagnosisService(t)

	_, err := svc.Rename(context.Background(), "Cảm cúm", "viêm dạ dày")
	assert.ErrorIs(t, err, ErrDiagnosisExists)
}

func TestDiagnosisRenameUnknownName(t *testing.T) {
	svc := newTestDiagnosisService(t)

	_, err := svc.Rename(context.Background(), "Không tồn tại", "Gì đó")
	assert.ErrorIs(t, err, ErrDiagnosisNotFound)
}

func TestDiagnosisDelete(t *testing.T) {
	svc := newTestDiagnosisService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "Cảm cúm"))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, list, "Cảm cúm")

	assert.ErrorIs(t, svc.Delete(ctx, "Cảm cúm"), ErrDiagnosisNotFound)
}

func TestDiagnosisDeleteAll(t *testing.T) {
	svc := newTestDiagnosisService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteAll(ctx))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
