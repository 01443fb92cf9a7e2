package work_package

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T, stored ...Persisted) (*mux.Router, *RepositoryStub) {
	service, repo, _, _ := setupServiceTest(t, stored...)
	handler := NewHandler(service)

	router := mux.NewRouter()
	router.HandleFunc("/api/work-packages", handler.List).Methods("GET")
	router.HandleFunc("/api/work-packages", handler.Create).Methods("POST")
	router.HandleFunc("/api/work-packages/{name}", handler.Update).Methods("PUT")
	router.HandleFunc("/api/work-packages/{name}", handler.Delete).Methods("DELETE")
	router.HandleFunc("/api/work-packages/{name}/start", handler.Start).Methods("POST")
	router.HandleFunc("/api/work-packages/{name}/stop", handler.Stop).Methods("POST")
	router.HandleFunc("/api/work-packages/{name}/reset", handler.Reset).Methods("POST")
	return router, repo
}

func serve(router *mux.Router, method, target string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, target, &payload)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Create(t *testing.T) {
	t.Run("created and started", func(t *testing.T) {
		router, repo := setupHandlerTest(t)

		rr := serve(router, "POST", "/api/work-packages", CreateWorkPackageDTO{Name: "Review", Ticket: "ABC-1", Start: true})

		assert.Equal(t, http.StatusCreated, rr.Code)
		var dto WorkPackageDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.Equal(t, "Review", dto.Name)
		assert.True(t, dto.Active)
		assert.Len(t, repo.Stored(), 1)
	})

	t.Run("duplicate name", func(t *testing.T) {
		router, _ := setupHandlerTest(t, Persisted{Name: "Review"})

		rr := serve(router, "POST", "/api/work-packages", CreateWorkPackageDTO{Name: "Review"})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("empty name", func(t *testing.T) {
		router, _ := setupHandlerTest(t)

		rr := serve(router, "POST", "/api/work-packages", CreateWorkPackageDTO{Name: ""})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_List(t *testing.T) {
	router, _ := setupHandlerTest(t, Persisted{Name: "A", LoggedTime: 61}, Persisted{Name: "B"})

	rr := serve(router, "GET", "/api/work-packages", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var list []WorkPackageDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "A - 0:01:01", list[0].Display)
}

func TestHandler_StartStop(t *testing.T) {
	router, _ := setupHandlerTest(t, Persisted{Name: "A"})

	rr := serve(router, "POST", "/api/work-packages/A/start", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, "POST", "/api/work-packages/A/start", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(router, "POST", "/api/work-packages/A/stop", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var dto WorkPackageDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.False(t, dto.Active)

	rr = serve(router, "POST", "/api/work-packages/X/stop", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Update(t *testing.T) {
	router, repo := setupHandlerTest(t, Persisted{Name: "A"})
	logged := float64(600)

	rr := serve(router, "PUT", "/api/work-packages/A", EditWorkPackageDTO{Name: "Alpha", Ticket: "T-1", LoggedSeconds: &logged})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []Persisted{{Name: "Alpha", Ticket: "T-1", LoggedTime: 600}}, repo.Stored())
}

func TestHandler_Delete(t *testing.T) {
	router, repo := setupHandlerTest(t, Persisted{Name: "A", LoggedTime: 3600})

	rr := serve(router, "DELETE", "/api/work-packages/A", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	var body rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, ErrConfirmationRequired.Error(), body.Error)

	rr = serve(router, "DELETE", "/api/work-packages/A?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, repo.Stored())
}
