package work_package

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/klokku/flextime/internal/utils"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// Load returns the stored packages. A missing or unreadable file yields an empty list.
	Load(ctx context.Context) ([]Persisted, error)
	Save(ctx context.Context, packages []Persisted) error
}

type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(ctx context.Context) ([]Persisted, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("No work packages stored at %s", r.path)
			return []Persisted{}, nil
		}
		log.Errorf("Could not load work packages: %v", err)
		return []Persisted{}, fmt.Errorf("failed to read work packages: %w", err)
	}

	var packages []Persisted
	if err := json.Unmarshal(data, &packages); err != nil {
		log.Errorf("Could not load work packages from %s: %v", r.path, err)
		if target, qErr := utils.QuarantineFile(r.path); qErr == nil {
			log.Warnf("Moved unreadable work package file to %s", target)
		}
		return []Persisted{}, fmt.Errorf("failed to decode work packages: %w", err)
	}
	if packages == nil {
		packages = []Persisted{}
	}
	return packages, nil
}

func (r *FileRepository) Save(ctx context.Context, packages []Persisted) error {
	if packages == nil {
		packages = []Persisted{}
	}
	if err := utils.WriteJSONAtomic(r.path, packages); err != nil {
		log.Errorf("Failed to save work packages to %s: %v", r.path, err)
		return fmt.Errorf("failed to save work packages: %w", err)
	}
	log.Debugf("Saved %d work packages to %s", len(packages), r.path)
	return nil
}
