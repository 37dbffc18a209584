// Package snapshot persists the aggregated collection state to a single
// JSON file so that analysis can run again without any API access.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/reposcope/reposcope/internal/domain"
)

// CurrentVersion is the snapshot schema version written by Save. Load
// rejects any other version instead of guessing at the field layout.
const CurrentVersion = 1

// File is the versioned on-disk representation of a collection. It is an
// explicit transfer structure rather than a dump of internal state, so the
// in-memory types can evolve without silently breaking old snapshots.
type File struct {
	Version      int                          `json:"version"`
	RunID        string                       `json:"run_id"`
	SavedAt      time.Time                    `json:"saved_at"`
	Repositories map[string]domain.Repository `json:"repositories"`
	Failures     []domain.Failure             `json:"failures,omitempty"`
}

// Save writes the collection to path as one whole file. The write is not
// transactional; a crash mid-write can leave a corrupt file, which Load
// then rejects.
func Save(path string, collection *domain.Collection) error {
	file := File{
		Version:      CurrentVersion,
		RunID:        uuid.NewString(),
		SavedAt:      time.Now().UTC(),
		Repositories: collection.Repos,
		Failures:     collection.Failures,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot written by Save and reconstructs the collection.
func Load(path string) (*domain.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if file.Version != CurrentVersion {
		return nil, fmt.Errorf("snapshot %s has unsupported version %d (want %d)", path, file.Version, CurrentVersion)
	}
	collection := domain.NewCollection()
	if file.Repositories != nil {
		collection.Repos = file.Repositories
	}
	collection.Failures = file.Failures
	return collection, nil
}
