package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, mu *sync.Mutex) {

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, req)
			log.Debugf("%s %s took %s", req.Method, req.URL.Path, time.Since(started))
		})
	})

	// The ledger and the work packages are edited by one request at a time, like the terminal UI does.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
}
