package assignment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *mux.Router {
	handler := NewHandler(setupService(t))
	r := mux.NewRouter()
	r.HandleFunc("/api/assignments", handler.ListAssignments).Methods("GET")
	r.HandleFunc("/api/assignments", handler.CreateAssignment).Methods("POST")
	r.HandleFunc("/api/assignments/{assignmentId}", handler.GetAssignment).Methods("GET")
	r.HandleFunc("/api/assignments/{assignmentId}", handler.UpdateAssignment).Methods("PUT")
	r.HandleFunc("/api/assignments/{assignmentId}", handler.DeleteAssignment).Methods("DELETE")
	r.HandleFunc("/api/clients/{clientId}/assignments", handler.ListClientAssignments).Methods("GET")
	r.HandleFunc("/api/staff/{staffId}/assignments", handler.ListStaffAssignments).Methods("GET")
	return r
}

func doRequest(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_AssignmentLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/assignments",
		`{"clientId":7,"staffId":3,"assignmentType":"secondary","startDate":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created AssignmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "secondary", created.AssignmentType)
	assert.Equal(t, "2024-03-01", created.StartDate)
	require.NotNil(t, created.IsActive)
	assert.True(t, *created.IsActive)
	path := "/api/assignments/" + strconv.Itoa(created.Id)

	w = doRequest(r, http.MethodPost, "/api/assignments", `{"clientId":7,"staffId":3}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodGet, "/api/clients/7/assignments", "")
	require.Equal(t, http.StatusOK, w.Code)
	var byClient []AssignmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byClient))
	require.Len(t, byClient, 1)

	w = doRequest(r, http.MethodPut, path, `{"clientId":7,"staffId":3,"assignmentType":"primary","isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/staff/3/assignments", "")
	require.Equal(t, http.StatusOK, w.Code)
	var byStaff []AssignmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byStaff))
	assert.Empty(t, byStaff)

	w = doRequest(r, http.MethodGet, "/api/assignments?staffId=3&includeInactive=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []AssignmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.False(t, *all[0].IsActive)

	w = doRequest(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_InvalidRequests(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name   string
		method string
		url    string
		body   string
	}{
		{"malformed body", http.MethodPost, "/api/assignments", `{"clientId":`},
		{"bad date", http.MethodPost, "/api/assignments", `{"clientId":1,"staffId":2,"startDate":"01/03/2024"}`},
		{"missing staff", http.MethodPost, "/api/assignments", `{"clientId":1}`},
		{"bad filter", http.MethodGet, "/api/assignments?staffId=abc", ""},
		{"bad id", http.MethodGet, "/api/assignments/abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.url, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
