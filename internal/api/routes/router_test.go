package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/api/handlers"
	"github.com/zatekoja/Medicalqueryreview/internal/api/middleware"
	"github.com/zatekoja/Medicalqueryreview/internal/api/routes"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ids := services.NewIDAllocator()
	doctors := services.NewDoctorRegistry(ids)
	patients := services.NewPatientRegistry(ids, doctors)
	queries := services.NewQueryLifecycleService(ids, patients, doctors, nil)
	health := services.NewHealthService(ids, patients, doctors, queries, nil, nil)

	router := routes.NewRouter(
		handlers.NewPatientHandler(patients),
		handlers.NewDoctorHandler(doctors, patients, queries),
		handlers.NewQueryHandler(queries, patients),
		handlers.NewHealthHandler(health),
		nil,
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, server *httptest.Server, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &payload)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestRouter_EndToEnd(t *testing.T) {
	server := newServer(t)

	var patient entities.Patient
	resp := call(t, server, http.MethodPost, "/api/patients", map[string]string{"name": "Sarah", "condition": "asthma"}, &patient)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var doctor entities.Doctor
	resp = call(t, server, http.MethodPost, "/api/doctors", map[string]string{"name": "Dr. Lee", "specialization": "pulmonology"}, &doctor)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, server, http.MethodPost, "/api/patients/"+patient.ID+"/assign", map[string]string{"doctor_id": doctor.ID}, &patient)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, patient.IsActive)

	var unassigned []entities.Patient
	resp = call(t, server, http.MethodGet, "/api/patients/unassigned", nil, &unassigned)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, unassigned)

	var query entities.MedicalQuery
	resp = call(t, server, http.MethodPost, "/api/queries", map[string]string{
		"patient_id":  patient.ID,
		"title":       "Inhaler dosage",
		"description": "How many puffs per day?",
	}, &query)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pending []entities.MedicalQuery
	resp = call(t, server, http.MethodGet, "/api/queries/pending", nil, &pending)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, pending, 1)

	resp = call(t, server, http.MethodPost, "/api/queries/"+query.ID+"/take", map[string]string{"doctor_id": doctor.ID}, &query)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, server, http.MethodPost, "/api/queries/"+query.ID+"/respond", map[string]string{
		"doctor_id": doctor.ID,
		"response":  "Two puffs twice daily.",
	}, &query)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entities.QueryStatusCompleted, query.Status)

	var report entities.HealthReport
	resp = call(t, server, http.MethodGet, "/health", nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, report.Patients)
	assert.Equal(t, 1, report.Queries)
	assert.Equal(t, 0, report.PendingQueries)
}

func TestRouter_UnknownRoutesAndMethods(t *testing.T) {
	server := newServer(t)

	resp := call(t, server, http.MethodGet, "/api/nothing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, server, http.MethodDelete, "/api/queries/query_1", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = call(t, server, http.MethodGet, "/api/stream/queries", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
