package budget

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *mux.Router {
	handler := NewBudgetHandler(setupService(t))
	r := mux.NewRouter()
	r.HandleFunc("/api/budget-types", handler.ListTypes).Methods("GET")
	r.HandleFunc("/api/budget-allocations", handler.ListAllocations).Methods("GET")
	r.HandleFunc("/api/budget-allocations", handler.CreateAllocation).Methods("POST")
	r.HandleFunc("/api/budget-allocations/{allocationId}", handler.GetAllocation).Methods("GET")
	r.HandleFunc("/api/budget-allocations/{allocationId}", handler.UpdateAllocation).Methods("PUT")
	r.HandleFunc("/api/budget-allocations/{allocationId}", handler.DeleteAllocation).Methods("DELETE")
	r.HandleFunc("/api/clients/{clientId}/budget-availability", handler.CheckAvailability).Methods("GET")
	return r
}

func doRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBudgetHandler_ListTypes(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/budget-types", "")
	require.Equal(t, http.StatusOK, w.Code)
	var types []BudgetTypeDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&types))
	require.Len(t, types, 2)
	assert.Equal(t, "HCPQ", types[0].Code)
}

func TestBudgetHandler_AllocationLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/budget-allocations",
		`{"clientId":7,"budgetTypeId":1,"totalAmount":"1500","startDate":"2024-01-01","endDate":"2024-12-31"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created AllocationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "1500", created.Available.String())
	assert.Equal(t, "2024-12-31", created.EndDate)

	w = doRequest(r, http.MethodGet, "/api/budget-allocations?clientId=7&from=2024-06-01&to=2024-06-30", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []AllocationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	assert.Len(t, listed, 1)

	w = doRequest(r, http.MethodPut, "/api/budget-allocations/1",
		`{"budgetTypeId":2,"totalAmount":"2000","startDate":"2024-01-01","endDate":"2024-12-31"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated AllocationDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, 7, updated.ClientId)
	assert.Equal(t, "HCPB", updated.BudgetTypeCode)

	w = doRequest(r, http.MethodGet, "/api/clients/7/budget-availability?amount=1900&date=2024-03-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	var availability AvailabilityDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&availability))
	assert.True(t, availability.HasAvailableCredit)
	require.Len(t, availability.Warnings, 1)
	assert.Equal(t, string(WarningApproaching), availability.Warnings[0].Code)

	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodDelete, "/api/budget-allocations/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/budget-allocations/1", "").Code)
}

func TestBudgetHandler_Errors(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, "/api/budget-allocations",
		`{"clientId":7,"budgetTypeId":1,"totalAmount":"100","startDate":"2024-01-01","endDate":"2024-12-31"}`).Code)
	stubRepo.SetUsed(1, dec("10"))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", http.MethodPost, "/api/budget-allocations", `{`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/budget-allocations", `{"clientId":7,"budgetTypeId":1,"totalAmount":"1","startDate":"01/01/2024","endDate":"2024-12-31"}`, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/api/budget-allocations", `{"clientId":7,"budgetTypeId":9,"totalAmount":"1","startDate":"2024-01-01","endDate":"2024-12-31"}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/budget-allocations/abc", "", http.StatusBadRequest},
		{"missing allocation", http.MethodDelete, "/api/budget-allocations/99", "", http.StatusNotFound},
		{"allocation in use", http.MethodDelete, "/api/budget-allocations/1", "", http.StatusConflict},
		{"total below used", http.MethodPut, "/api/budget-allocations/1", `{"budgetTypeId":1,"totalAmount":"5","startDate":"2024-01-01","endDate":"2024-12-31"}`, http.StatusBadRequest},
		{"bad amount", http.MethodGet, "/api/clients/7/budget-availability?amount=lots", "", http.StatusBadRequest},
		{"bad client", http.MethodGet, "/api/clients/x/budget-availability?amount=1", "", http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/budget-allocations?from=yesterday", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, doRequest(r, tt.method, tt.path, tt.body).Code)
		})
	}
}
