package staff

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
	handler := NewHandler(setupService(t))
	r := mux.NewRouter()
	r.HandleFunc("/api/staff", handler.ListStaff).Methods("GET")
	r.HandleFunc("/api/staff", handler.CreateStaff).Methods("POST")
	r.HandleFunc("/api/staff/{staffId}", handler.GetStaff).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}", handler.UpdateStaff).Methods("PUT")
	r.HandleFunc("/api/staff/{staffId}", handler.DeleteStaff).Methods("DELETE")
	r.HandleFunc("/api/staff/{staffId}/rates", handler.ListRates).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}/rates", handler.CreateRate).Methods("POST")
	r.HandleFunc("/api/staff/{staffId}/rates/{rateId}", handler.UpdateRate).Methods("PUT")
	r.HandleFunc("/api/staff/{staffId}/rates/{rateId}", handler.DeleteRate).Methods("DELETE")
	return r
}

func doRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_StaffAndRates(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/staff", `{"firstName":"Anna","lastName":"Bianchi","type":"external","hireDate":"2023-09-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created StaffDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "external", created.Type)
	assert.Equal(t, "active", created.Status)

	w = doRequest(r, http.MethodPost, "/api/staff/1/rates",
		`{"weekdayRate":"15","weekendRate":"25.75","holidayRate":"25.75","mileageRate":"0.60","effectiveFrom":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var rate RateDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rate))
	assert.Equal(t, "1.5", rate.OvertimeMultiplier.String())
	require.NotNil(t, rate.IsActive)
	assert.True(t, *rate.IsActive)

	w = doRequest(r, http.MethodGet, "/api/staff/1/rates", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rates []RateDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rates))
	assert.Len(t, rates, 1)

	w = doRequest(r, http.MethodGet, "/api/staff?type=external", "")
	require.Equal(t, http.StatusOK, w.Code)
	var members []StaffDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&members))
	assert.Len(t, members, 1)
}

func TestHandler_Errors(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, "/api/staff", `{"firstName":"Anna"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid json", http.MethodPost, "/api/staff", `{`, http.StatusBadRequest},
		{"invalid hire date", http.MethodPost, "/api/staff", `{"firstName":"A","hireDate":"01/09/2023"}`, http.StatusBadRequest},
		{"invalid type filter", http.MethodGet, "/api/staff?type=freelance", "", http.StatusBadRequest},
		{"not found", http.MethodGet, "/api/staff/99", "", http.StatusNotFound},
		{"rates of unknown staff", http.MethodGet, "/api/staff/99/rates", "", http.StatusNotFound},
		{"rate without date", http.MethodPost, "/api/staff/1/rates", `{"weekdayRate":"10"}`, http.StatusBadRequest},
		{"negative rate", http.MethodPost, "/api/staff/1/rates", `{"weekdayRate":"-1","effectiveFrom":"2024-01-01"}`, http.StatusBadRequest},
		{"delete unknown rate", http.MethodDelete, "/api/staff/1/rates/7", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
