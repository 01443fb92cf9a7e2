package event_bus

import "time"

const (
	SettingsCommitted  EventType = "settings.committed"
	LedgerSaved        EventType = "ledger.saved"
	MonthSwitched      EventType = "ledger.month.switched"
	WorkPackageStarted EventType = "work_package.started"
	WorkPackageStopped EventType = "work_package.stopped"
	WorkPackageRemoved EventType = "work_package.removed"
	WorkPackagesSaved  EventType = "work_packages.saved"
	WorklogFinished    EventType = "worklog.finished"
)

type SettingsCommittedEvent struct {
	UID        string
	UIDChanged bool
}

type LedgerSavedEvent struct {
	Year  int
	Month time.Month
	Path  string
}

type MonthSwitchedEvent struct {
	FromYear  int
	FromMonth time.Month
	ToYear    int
	ToMonth   time.Month
}

type WorkPackageEvent struct {
	Name         string
	Ticket       string
	TotalSeconds float64
}

type WorkPackagesSavedEvent struct {
	Count int
}

type WorklogStatus string

const (
	WorklogSucceeded WorklogStatus = "succeeded"
	WorklogFailed    WorklogStatus = "failed"
	WorklogCancelled WorklogStatus = "cancelled"
)

type WorklogFinishedEvent struct {
	Id          string
	WorkPackage string
	Ticket      string
	Seconds     int
	Status      WorklogStatus
	Error       string
	FinishedAt  time.Time
}
