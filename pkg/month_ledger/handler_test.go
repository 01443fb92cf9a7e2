package month_ledger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*mux.Router, *ServiceImpl, func()) {
	service, _, _, _, teardown := setupServiceTest(t)
	handler := NewHandler(service, NewCsvRenderer())

	router := mux.NewRouter()
	router.HandleFunc("/api/month/{year}/{month}", handler.GetMonth).Methods("GET")
	router.HandleFunc("/api/month/{year}/{month}/days/{day}", handler.UpdateDay).Methods("PUT")
	router.HandleFunc("/api/month/{year}/{month}/days/{day}/stamp", handler.StampDay).Methods("POST")
	router.HandleFunc("/api/month/{year}/{month}/export.csv", handler.ExportCsv).Methods("GET")
	return router, service, teardown
}

func TestHandler_GetMonth(t *testing.T) {
	router, service, teardown := setupHandlerTest(t)
	defer teardown()

	req := httptest.NewRequest("GET", "/api/month/2026/11", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var month MonthDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &month))
	assert.Equal(t, "November 2026", month.Label)
	assert.Len(t, month.Days, 30)
	assert.Equal(t, "Sunday", month.Days[0].Weekday)
	assert.True(t, month.Days[0].Skipped)

	_, active := service.Current()
	assert.Equal(t, 11, int(active))
}

func TestHandler_GetMonth_InvalidMonth(t *testing.T) {
	router, _, teardown := setupHandlerTest(t)
	defer teardown()

	req := httptest.NewRequest("GET", "/api/month/2026/13", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Invalid month", body.Error)
}

func TestHandler_UpdateDay(t *testing.T) {
	t.Run("sets times and flags", func(t *testing.T) {
		router, _, teardown := setupHandlerTest(t)
		defer teardown()

		body := `{"start": "8:00", "end": "16:30", "homeOffice": true}`
		req := httptest.NewRequest("PUT", "/api/month/2026/10/days/19", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var dto DayDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.Equal(t, 19, dto.Day)
		assert.Equal(t, "08:00", dto.Start)
		assert.Equal(t, "16:30", dto.End)
		assert.True(t, dto.HomeOffice)
		assert.Equal(t, 28800, dto.WorkedSeconds)
		assert.Equal(t, "-0:15", dto.Diff)
	})

	t.Run("detail breakdown locks the day", func(t *testing.T) {
		router, _, teardown := setupHandlerTest(t)
		defer teardown()

		body := `{"detail": [{"start": "08:00", "end": "12:00", "activity": 1}]}`
		req := httptest.NewRequest("PUT", "/api/month/2026/10/days/19", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var dto DayDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.True(t, dto.Locked)
		assert.Equal(t, "07:00", dto.Start)
		assert.Equal(t, "11:00", dto.End)
		assert.Len(t, dto.Detail, 1)

		req = httptest.NewRequest("PUT", "/api/month/2026/10/days/19", bytes.NewBufferString(`{"start": "9:00"}`))
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("detail with times is rejected as a whole", func(t *testing.T) {
		// given
		router, service, teardown := setupHandlerTest(t)
		defer teardown()
		repo := service.repo.(*RepositoryStub)

		// when
		body := `{"detail": [{"start": "08:00", "end": "12:00", "activity": 1}], "start": "9:00"}`
		req := httptest.NewRequest("PUT", "/api/month/2026/10/days/19", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// then
		assert.Equal(t, http.StatusConflict, rr.Code)
		record := service.Snapshot().Days[18]
		assert.False(t, record.IsLocked())
		assert.Zero(t, record.Detail.Total())
		if stored, ok := repo.Stored(2026, time.October); ok {
			assert.False(t, stored.Days[18].IsLocked())
			assert.Zero(t, stored.Days[18].Detail.Total())
		}
	})

	t.Run("detail reaching midnight", func(t *testing.T) {
		router, service, teardown := setupHandlerTest(t)
		defer teardown()

		body := `{"detail": [{"start": "06:00", "end": "23:00", "activity": 1}]}`
		req := httptest.NewRequest("PUT", "/api/month/2026/10/days/19", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, service.Snapshot().Days[18].IsLocked())
	})

	t.Run("invalid time", func(t *testing.T) {
		router, _, teardown := setupHandlerTest(t)
		defer teardown()

		req := httptest.NewRequest("PUT", "/api/month/2026/10/days/1", bytes.NewBufferString(`{"start": "25:00"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("day outside of the month", func(t *testing.T) {
		router, _, teardown := setupHandlerTest(t)
		defer teardown()

		req := httptest.NewRequest("PUT", "/api/month/2026/2/days/30", bytes.NewBufferString(`{"vacation": true}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandler_StampDay(t *testing.T) {
	router, _, teardown := setupHandlerTest(t)
	defer teardown()

	req := httptest.NewRequest("POST", "/api/month/2026/10/days/19/stamp", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var dto DayDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, "08:03", dto.Start)
	assert.True(t, dto.Forecast)
	assert.Equal(t, "16:48", dto.End)
}

func TestHandler_ExportCsv(t *testing.T) {
	router, _, teardown := setupHandlerTest(t)
	defer teardown()

	req := httptest.NewRequest("GET", "/api/month/2026/10/export.csv", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "October 2026.csv")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Date,Planned"))
}
