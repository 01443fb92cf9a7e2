package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/credential"
	"github.com/klokku/flextime/pkg/work_package"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Application {
	return config.Application{
		DataDir:          t.TempDir(),
		SettingsFile:     "settings.json",
		WorkPackagesFile: "workpackages.json",
		Database:         config.Database{Path: "flextime.db"},
		Server:           config.Server{Addr: "127.0.0.1:0"},
		Tracker:          config.Tracker{Timeout: time.Second, Auth: config.BasicAuth},
		Autosave:         config.Autosave{Ticks: 60},
	}
}

func setupApplicationTest(t *testing.T) (*Application, *utils.MockClock) {
	clock := &utils.MockClock{}
	clock.SetNow(time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local))
	application, err := newApplication(context.Background(), testConfig(t), credential.NewStubStore(), clock)
	require.NoError(t, err)
	return application, clock
}

func TestApplication_Routes(t *testing.T) {
	application, _ := setupApplicationTest(t)
	defer application.Shutdown(context.Background())
	router := application.Router()

	body, _ := json.Marshal(work_package.CreateWorkPackageDTO{Name: "Review", Ticket: "ABC-1"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/work-packages", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/month/2026/10", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/settings", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/settings/verify", nil))
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/worklogs", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/stats?fromDate=2026-10-01T00:00:00Z&toDate=2026-10-31T23:59:59Z", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestApplication_Shutdown(t *testing.T) {
	t.Run("saves the running work package and the month", func(t *testing.T) {
		// given
		application, clock := setupApplicationTest(t)
		packages := application.Dependencies().WorkPackageService
		_, err := packages.Create(context.Background(), "Review", "", true)
		require.NoError(t, err)
		clock.Advance(90 * time.Second)

		// when
		err = application.Shutdown(context.Background())

		// then
		require.NoError(t, err)
		cfg := application.Config()
		loaded, err := work_package.NewFileRepository(cfg.Resolve(cfg.WorkPackagesFile)).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []work_package.Persisted{{Name: "Review", LoggedTime: 90}}, loaded)
		_, err = os.Stat(filepath.Join(cfg.MonthDir(), "October 2026.json"))
		assert.NoError(t, err)

		assert.NoError(t, application.Shutdown(context.Background()))
	})

	t.Run("failed save is reported", func(t *testing.T) {
		// given
		application, _ := setupApplicationTest(t)
		cfg := application.Config()
		require.NoError(t, os.MkdirAll(cfg.Resolve(cfg.WorkPackagesFile), 0o755))

		// when
		err := application.Shutdown(context.Background())

		// then
		assert.ErrorContains(t, err, "saving work packages")
	})
}

func TestApplication_Warnings(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Resolve(cfg.SettingsFile), []byte("{not json"), 0o644))

	application, err := newApplication(context.Background(), cfg, credential.NewStubStore(), utils.SystemClock{})
	require.NoError(t, err)
	defer application.Shutdown(context.Background())

	require.Len(t, application.Warnings(), 1)
	assert.ErrorIs(t, application.Warnings()[0], config.ErrConfigLoad)
}
