package worklog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/klokku/flextime/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Entry is one finished worklog submission.
type Entry struct {
	Id          string
	WorkPackage string
	Ticket      string
	Seconds     int
	Status      event_bus.WorklogStatus
	Error       string
	CreatedAt   time.Time
}

type HistoryRepository interface {
	Store(ctx context.Context, entry Entry) error
	// List returns the latest entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)
}

type HistoryRepositoryImpl struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepositoryImpl {
	return &HistoryRepositoryImpl{db: db}
}

func (r *HistoryRepositoryImpl) Store(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO worklog_history (id, work_package, ticket, seconds, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		entry.Id,
		entry.WorkPackage,
		entry.Ticket,
		entry.Seconds,
		string(entry.Status),
		entry.Error,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store worklog entry: %w", err)
	}
	return nil
}

func (r *HistoryRepositoryImpl) List(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, work_package, ticket, seconds, status, error, created_at
		FROM worklog_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query worklog history: %w", err)
	}
	return scanEntries(rows)
}

// ListBetween returns the entries created in [from, to), oldest first.
func (r *HistoryRepositoryImpl) ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error) {
	const query = `
		SELECT id, work_package, ticket, seconds, status, error, created_at
		FROM worklog_history
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query worklog history: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var status string
		var createdAt int64
		if err := rows.Scan(&entry.Id, &entry.WorkPackage, &entry.Ticket, &entry.Seconds, &status, &entry.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan worklog entry: %w", err)
		}
		entry.Status = event_bus.WorklogStatus(status)
		entry.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Subscribe records every finished submission published on eventBus.
func Subscribe(eventBus *event_bus.EventBus, repo HistoryRepository) (unsubscribe func()) {
	return event_bus.SubscribeTyped(eventBus, event_bus.WorklogFinished, func(e event_bus.EventT[event_bus.WorklogFinishedEvent]) error {
		entry := Entry{
			Id:          e.Data.Id,
			WorkPackage: e.Data.WorkPackage,
			Ticket:      e.Data.Ticket,
			Seconds:     e.Data.Seconds,
			Status:      e.Data.Status,
			Error:       e.Data.Error,
			CreatedAt:   e.Data.FinishedAt,
		}
		if err := repo.Store(e.Context(), entry); err != nil {
			log.Errorf("Failed to record worklog %s: %v", entry.Id, err)
			return err
		}
		return nil
	})
}
