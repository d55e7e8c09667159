package compensation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, fixture) {
	f := setupService(t)
	handler := NewHandler(f.service)
	r := mux.NewRouter()
	r.HandleFunc("/api/compensations/calculate", handler.CalculateCompensations).Methods("POST")
	r.HandleFunc("/api/compensations", handler.ListCompensations).Methods("GET")
	r.HandleFunc("/api/compensations", handler.CreateCompensation).Methods("POST")
	r.HandleFunc("/api/compensations/{compensationId}", handler.GetCompensation).Methods("GET")
	r.HandleFunc("/api/compensations/{compensationId}", handler.DeleteCompensation).Methods("DELETE")
	r.HandleFunc("/api/compensations/{compensationId}/pay", handler.MarkPaid).Methods("POST")
	return r, f
}

func doRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CalculateCreatePay(t *testing.T) {
	r, f := setupRouter(t)
	s := f.addStaffWithRate(t, "Anna", staff.TypeInternal)
	f.addReferenceLogs(t, s.Id)

	w := doRequest(r, http.MethodPost, "/api/compensations/calculate", `{"periodStart":"2024-03-01","periodEnd":"2024-03-31"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var preview []CompensationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&preview))
	require.Len(t, preview, 1)
	assert.Equal(t, "290.75", preview[0].TotalCompensation.String())

	w = doRequest(r, http.MethodPost, "/api/compensations", `{"staffId":1,"periodStart":"2024-03-01","periodEnd":"2024-03-31"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CompensationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "approved", created.Status)
	assert.Len(t, created.Lines, 3)

	w = doRequest(r, http.MethodPost, "/api/compensations", `{"staffId":1,"periodStart":"2024-03-01","periodEnd":"2024-03-31"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodPost, "/api/compensations/1/pay", "")
	require.Equal(t, http.StatusOK, w.Code)
	var paid CompensationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&paid))
	assert.Equal(t, "paid", paid.Status)
	assert.NotNil(t, paid.PaidAt)

	w = doRequest(r, http.MethodPost, "/api/compensations/1/pay", `{"paidAt":"2024-04-02T09:00:00Z"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodGet, "/api/compensations?status=paid&from=2024-03-01&to=2024-03-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []CompensationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	assert.Len(t, listed, 1)
}

func TestHandler_Errors(t *testing.T) {
	r, _ := setupRouter(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad period", http.MethodPost, "/api/compensations/calculate", `{"periodStart":"March","periodEnd":"2024-03-31"}`, http.StatusBadRequest},
		{"bad staff type", http.MethodPost, "/api/compensations/calculate", `{"periodStart":"2024-03-01","periodEnd":"2024-03-31","staffType":"x"}`, http.StatusBadRequest},
		{"missing staff", http.MethodPost, "/api/compensations", `{"periodStart":"2024-03-01","periodEnd":"2024-03-31"}`, http.StatusBadRequest},
		{"unknown staff", http.MethodPost, "/api/compensations", `{"staffId":5,"periodStart":"2024-03-01","periodEnd":"2024-03-31"}`, http.StatusNotFound},
		{"not found", http.MethodGet, "/api/compensations/3", "", http.StatusNotFound},
		{"bad id", http.MethodDelete, "/api/compensations/abc", "", http.StatusBadRequest},
		{"bad status", http.MethodGet, "/api/compensations?status=draft", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, doRequest(r, tt.method, tt.path, tt.body).Code)
		})
	}
}
