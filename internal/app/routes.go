package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Month ledger
	r.HandleFunc("/api/month/{year}/{month}", deps.MonthHandler.GetMonth).Methods("GET")
	r.HandleFunc("/api/month/{year}/{month}/export.csv", deps.MonthHandler.ExportCsv).Methods("GET")
	r.HandleFunc("/api/month/{year}/{month}/days/{day}", deps.MonthHandler.UpdateDay).Methods("PUT")
	r.HandleFunc("/api/month/{year}/{month}/days/{day}/stamp", deps.MonthHandler.StampDay).Methods("POST")

	// Work packages
	r.HandleFunc("/api/work-packages", deps.WorkPackageHandler.List).Methods("GET")
	r.HandleFunc("/api/work-packages", deps.WorkPackageHandler.Create).Methods("POST")
	r.HandleFunc("/api/work-packages/{name}", deps.WorkPackageHandler.Update).Methods("PUT")
	r.HandleFunc("/api/work-packages/{name}", deps.WorkPackageHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/work-packages/{name}/start", deps.WorkPackageHandler.Start).Methods("POST")
	r.HandleFunc("/api/work-packages/{name}/stop", deps.WorkPackageHandler.Stop).Methods("POST")
	r.HandleFunc("/api/work-packages/{name}/reset", deps.WorkPackageHandler.Reset).Methods("POST")

	// Worklogs
	r.HandleFunc("/api/work-packages/{name}/worklog", deps.WorklogHandler.Submit).Methods("POST")
	r.HandleFunc("/api/worklogs", deps.WorklogHandler.History).Methods("GET")
	r.HandleFunc("/api/stats", deps.StatsHandler.GetStats).Methods("GET")

	// Settings
	r.HandleFunc("/api/settings", deps.SettingsHandler.GetSettings).Methods("GET")
	r.HandleFunc("/api/settings", deps.SettingsHandler.UpdateSettings).Methods("PUT")
	r.HandleFunc("/api/settings/verify", deps.TrackerHandler.Verify).Methods("POST")
}
