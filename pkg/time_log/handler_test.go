package time_log

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
	r.HandleFunc("/api/time-logs", handler.ListTimeLogs).Methods("GET")
	r.HandleFunc("/api/time-logs", handler.CreateTimeLog).Methods("POST")
	r.HandleFunc("/api/time-logs/{timeLogId}", handler.GetTimeLog).Methods("GET")
	r.HandleFunc("/api/time-logs/{timeLogId}", handler.UpdateTimeLog).Methods("PUT")
	r.HandleFunc("/api/time-logs/{timeLogId}", handler.DeleteTimeLog).Methods("DELETE")
	return r
}

func doRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAndList(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/time-logs",
		`{"clientId":1,"staffId":2,"scheduledStart":"2024-03-04T08:00:00+01:00","scheduledEnd":"2024-03-04T09:15:00+01:00","serviceType":"HCPB","mileage":"12.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created TimeLogDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "2024-03-04", created.ServiceDate)
	assert.Equal(t, "1.25", created.Hours.String())

	w = doRequest(r, http.MethodGet, "/api/time-logs?staffId=2&from=2024-03-01&to=2024-03-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	var logs []TimeLogDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&logs))
	assert.Len(t, logs, 1)

	w = doRequest(r, http.MethodGet, "/api/time-logs?staffId=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&logs))
	assert.Empty(t, logs)
}

func TestHandler_LockedReturnsConflict(t *testing.T) {
	r := setupRouter(t)
	w := doRequest(r, http.MethodPost, "/api/time-logs", `{"clientId":1,"staffId":2,"serviceDate":"2024-03-04","hours":"2"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	timeLogRepoStub.Locked[1] = true

	w = doRequest(r, http.MethodDelete, "/api/time-logs/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doRequest(r, http.MethodPut, "/api/time-logs/1", `{"clientId":1,"staffId":2,"serviceDate":"2024-03-04","hours":"3"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := setupRouter(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid filter", http.MethodGet, "/api/time-logs?from=March", "", http.StatusBadRequest},
		{"invalid body", http.MethodPost, "/api/time-logs", `[]`, http.StatusBadRequest},
		{"invalid date", http.MethodPost, "/api/time-logs", `{"clientId":1,"staffId":1,"serviceDate":"04/03/2024","hours":"1"}`, http.StatusBadRequest},
		{"zero hours", http.MethodPost, "/api/time-logs", `{"clientId":1,"staffId":1,"serviceDate":"2024-03-04"}`, http.StatusBadRequest},
		{"not found", http.MethodGet, "/api/time-logs/5", "", http.StatusNotFound},
		{"invalid id", http.MethodDelete, "/api/time-logs/x", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, doRequest(r, tt.method, tt.path, tt.body).Code)
		})
	}
}
