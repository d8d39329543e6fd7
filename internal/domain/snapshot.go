package domain

import "time"

// SnapshotVersion is bumped when the export layout changes incompatibly.
const SnapshotVersion = 1

// MaskedValue replaces sensitive resource values in masked snapshots. Import
// never writes it back.
const MaskedValue = "********"

// Snapshot is a portable dump of the local repositories.
type Snapshot struct {
	Version   int        `json:"version"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	Masked    bool       `json:"masked,omitempty"`
	Resources []Resource `json:"resources"`
	Users     []User     `json:"users"`
}
