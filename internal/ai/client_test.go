package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSuggestDiagnosisValidation(t *testing.T) {
	c := NewClient("", "", zap.NewNop())

	_, err := c.SuggestDiagnosis(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrSymptomsRequired)

	_, err = c.SuggestDiagnosis(context.Background(), "ho, sốt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSuggestDiagnosis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/diagnosis", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ho, sốt, đau họng", req["symptoms"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "success",
			"suggestion": "Viêm họng cấp",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", zap.NewNop())
	suggestion, err := c.SuggestDiagnosis(context.Background(), "ho, sốt, đau họng")
	require.NoError(t, err)
	assert.Equal(t, "Viêm họng cấp", suggestion)
}

func TestSuggestDiagnosisSurfacesRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "hết hạn mức",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", zap.NewNop())
	_, err := c.SuggestDiagnosis(context.Background(), "ho")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hết hạn mức")
}

func TestExtractDrugs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract-drugs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"drugs": []map[string]interface{}{
				{"name": "Paracetamol 500mg", "price": 500, "usage": "uống", "unit": "viên"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", zap.NewNop())
	drugs, err := c.ExtractDrugs(context.Background(), "danh sách thuốc từ PDF")
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, "Paracetamol 500mg", drugs[0].Name)
	assert.Equal(t, 500.0, drugs[0].Price)

	// Empty text short-circuits without a request.
	drugs, err = c.ExtractDrugs(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, drugs)
}
