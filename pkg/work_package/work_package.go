package work_package

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/flextime/pkg/timeofday"
)

var ErrAlreadyActive = errors.New("work package is already active")
var ErrNotActive = errors.New("work package is not active")

// WorkPackage is a stopwatch. Several may run at once; the Collection is what keeps
// only one of them active.
type WorkPackage struct {
	// Id identifies the package for the lifetime of the process and survives renames.
	Id                 string
	Name               string
	Ticket             string
	AccumulatedSeconds float64
	RunningSince       *time.Time
}

// Persisted is the stored form of a work package.
type Persisted struct {
	Name       string  `json:"name"`
	Ticket     string  `json:"ticket"`
	LoggedTime float64 `json:"loggedTime"`
}

// MarshalJSON writes a missing ticket as null.
func (p Persisted) MarshalJSON() ([]byte, error) {
	var ticket *string
	if p.Ticket != "" {
		ticket = &p.Ticket
	}
	return json.Marshal(struct {
		Name       string  `json:"name"`
		Ticket     *string `json:"ticket"`
		LoggedTime float64 `json:"loggedTime"`
	}{p.Name, ticket, p.LoggedTime})
}

func New(name, ticket string) *WorkPackage {
	return &WorkPackage{Id: uuid.NewString(), Name: name, Ticket: ticket}
}

func FromPersisted(p Persisted) *WorkPackage {
	return &WorkPackage{Id: uuid.NewString(), Name: p.Name, Ticket: p.Ticket, AccumulatedSeconds: p.LoggedTime}
}

func (w *WorkPackage) IsActive() bool {
	return w.RunningSince != nil
}

func (w *WorkPackage) Start(now time.Time) error {
	if w.IsActive() {
		return ErrAlreadyActive
	}
	w.RunningSince = &now
	return nil
}

func (w *WorkPackage) Stop(now time.Time) error {
	if !w.IsActive() {
		return ErrNotActive
	}
	w.AccumulatedSeconds += w.session(now)
	w.RunningSince = nil
	return nil
}

// Reset drops the accumulated time. An active timer keeps running from now.
func (w *WorkPackage) Reset(now time.Time) {
	w.AccumulatedSeconds = 0
	if w.IsActive() {
		w.RunningSince = &now
	}
}

// Deduct removes seconds that were booked elsewhere and keeps whatever was tracked on top of them.
func (w *WorkPackage) Deduct(seconds float64, now time.Time) {
	w.checkpoint(now)
	w.AccumulatedSeconds -= seconds
	if w.AccumulatedSeconds < 0 {
		w.AccumulatedSeconds = 0
	}
}

// TotalSeconds is the accumulated time plus the running session. It does not change w.
func (w *WorkPackage) TotalSeconds(now time.Time) float64 {
	return w.AccumulatedSeconds + w.session(now)
}

// ToPersisted folds the running session into the accumulated time before it is stored.
func (w *WorkPackage) ToPersisted(now time.Time) Persisted {
	w.checkpoint(now)
	return Persisted{Name: w.Name, Ticket: w.Ticket, LoggedTime: w.AccumulatedSeconds}
}

func (w *WorkPackage) String(now time.Time) string {
	return w.Name + " - " + timeofday.FormatClock(w.TotalSeconds(now))
}

func (w *WorkPackage) checkpoint(now time.Time) {
	if !w.IsActive() {
		return
	}
	w.AccumulatedSeconds += w.session(now)
	w.RunningSince = &now
}

func (w *WorkPackage) session(now time.Time) float64 {
	if w.RunningSince == nil {
		return 0
	}
	elapsed := now.Sub(*w.RunningSince).Seconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
