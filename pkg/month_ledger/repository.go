package month_ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/utils"
	log "github.com/sirupsen/logrus"
)

// ErrConfigLoad is returned next to a usable default ledger when a month file could not be read.
var ErrConfigLoad = fmt.Errorf("month file: %w", config.ErrConfigLoad)

type Repository interface {
	// Load never fails hard: on any error it still returns a default ledger for the month.
	Load(ctx context.Context, year int, month time.Month) (MonthLedger, error)
	Save(ctx context.Context, ledger MonthLedger) error
	Location(year int, month time.Month) string
}

type FileRepository struct {
	mu       sync.Mutex
	dir      string
	backedUp map[string]bool
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		dir:      dir,
		backedUp: make(map[string]bool),
	}
}

func (r *FileRepository) Location(year int, month time.Month) string {
	return filepath.Join(r.dir, Label(year, month)+".json")
}

func (r *FileRepository) Load(ctx context.Context, year int, month time.Month) (MonthLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Location(year, month)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("No month file at %s, starting with an empty month", path)
			return NewMonthLedger(year, month), nil
		}
		log.Errorf("Could not read month file %s: %v", path, err)
		return NewMonthLedger(year, month), fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}

	r.backup(path)

	ledger, err := decodeMonth(data, year, month)
	if err != nil {
		log.Errorf("Month file %s is corrupt: %v", path, err)
		if target, qErr := utils.QuarantineFile(path); qErr != nil {
			log.Errorf("%v", qErr)
		} else {
			log.Warnf("Moved corrupt month file to %s", target)
		}
		return NewMonthLedger(year, month), fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}
	log.Debugf("Loaded %s from %s", ledger.Label(), path)
	return ledger, nil
}

// backup keeps the file as it was before this process first touched it.
func (r *FileRepository) backup(path string) {
	if r.backedUp[path] {
		return
	}
	if err := utils.CopyFile(path, path+".bak"); err != nil {
		log.Errorf("Could not back up %s: %v", path, err)
		return
	}
	r.backedUp[path] = true
}

func (r *FileRepository) Save(ctx context.Context, ledger MonthLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(ledger.Days) != DaysIn(ledger.Year, ledger.Month) {
		return fmt.Errorf("ledger for %s has %d days", ledger.Label(), len(ledger.Days))
	}
	path := r.Location(ledger.Year, ledger.Month)
	if _, err := os.Stat(path); err == nil {
		r.backup(path)
	}

	data, err := encodeMonth(ledger)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ledger.Label(), err)
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		log.Errorf("Failed to save %s: %v", path, err)
		return fmt.Errorf("failed to save %s: %w", ledger.Label(), err)
	}
	log.Debugf("Saved %s to %s", ledger.Label(), path)
	return nil
}
