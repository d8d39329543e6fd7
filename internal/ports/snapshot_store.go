package ports

import "github.com/aalvaropc/tether/internal/domain"

// SnapshotStore persists exports for later import.
type SnapshotStore interface {
	SaveSnapshot(snap domain.Snapshot) (id string, err error)
	LoadSnapshot(path string) (domain.Snapshot, error)
}
