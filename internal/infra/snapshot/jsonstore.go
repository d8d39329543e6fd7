// Package snapshot writes and reads JSON exports of the local repositories.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

const defaultDir = "exports"

// maxSuffix bounds the search for a free snapshot id within one second.
const maxSuffix = 1000

type JSONStore struct {
	dir        string
	masking    bool
	writeIndex bool
	now        func() time.Time
	log        zerolog.Logger
}

type Option func(*JSONStore)

// WithIndex appends one line per export to <dir>/index.jsonl.
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithMasking replaces sensitive resource data values on save.
func WithMasking(enabled bool) Option {
	return func(s *JSONStore) { s.masking = enabled }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *JSONStore) { s.log = l }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

// NewJSONStore writes under dir, or <root>/exports when dir is empty.
func NewJSONStore(root, dir string, opts ...Option) *JSONStore {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	s := &JSONStore{
		dir:     dir,
		masking: true,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.SnapshotStore = (*JSONStore)(nil)

// SaveSnapshot writes <dir>/<UTC timestamp>_<label slug>.json atomically and
// returns the file name without extension. A second snapshot with the same
// name gets a _2, _3, ... suffix instead of replacing the first.
func (s *JSONStore) SaveSnapshot(snap domain.Snapshot) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "snapshot.mkdir",
			Kind: domain.KindExecution,
			Path: s.dir,
			Err:  err,
		}
	}

	ts := snap.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	toSave := snap
	toSave.CreatedAt = ts
	if toSave.Version == 0 {
		toSave.Version = domain.SnapshotVersion
	}

	slug := slugify(snap.Label)
	if slug == "" {
		slug = "snapshot"
	}

	if s.masking {
		toSave = maskSnapshot(toSave)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "snapshot.marshal",
			Kind: domain.KindExecution,
			Path: s.dir,
			Err:  err,
		}
	}

	id, err := s.reserve(ts.Format("20060102T150405Z") + "_" + slug)
	if err != nil {
		return "", err
	}
	filename := id + ".json"
	path := filepath.Join(s.dir, filename)

	if err := renameio.WriteFile(path, b, 0o600); err != nil {
		_ = os.Remove(path)
		return "", &domain.OpError{
			Op:   "snapshot.write",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		if err := s.appendIndex(id, filename, toSave); err != nil {
			s.log.Warn().Err(err).Str("id", id).Str("dir", s.dir).Msg("snapshot.index_failed")
		}
	}

	return id, nil
}

// reserve claims a free id by creating its file exclusively. The caller
// then replaces the empty placeholder.
func (s *JSONStore) reserve(base string) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		path := filepath.Join(s.dir, id+".json")

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &domain.OpError{Op: "snapshot.write", Kind: domain.KindExecution, Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", &domain.OpError{Op: "snapshot.write", Kind: domain.KindExecution, Path: path, Err: err}
		}
		return id, nil
	}
	return "", &domain.OpError{
		Op:   "snapshot.write",
		Kind: domain.KindExecution,
		Path: filepath.Join(s.dir, base+".json"),
		Err:  fmt.Errorf("no free snapshot name after %d attempts", maxSuffix),
	}
}

// LoadSnapshot reads a file written by SaveSnapshot.
func (s *JSONStore) LoadSnapshot(path string) (domain.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, &domain.OpError{
			Op:   "snapshot.read",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return domain.Snapshot{}, &domain.OpError{
			Op:   "snapshot.decode",
			Kind: domain.KindValidation,
			Path: path,
			Err:  err,
		}
	}
	if snap.Version > domain.SnapshotVersion {
		return domain.Snapshot{}, &domain.OpError{
			Op:   "snapshot.decode",
			Kind: domain.KindValidation,
			Path: path,
			Err:  fmt.Errorf("unsupported snapshot version %d", snap.Version),
		}
	}
	return snap, nil
}

// Path returns the absolute location of a snapshot id.
func (s *JSONStore) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *JSONStore) appendIndex(id, filename string, snap domain.Snapshot) error {
	type idx struct {
		ID        string    `json:"id"`
		File      string    `json:"file"`
		Label     string    `json:"label"`
		Resources int       `json:"resources"`
		Users     int       `json:"users"`
		CreatedAt time.Time `json:"created_at"`
	}
	line, err := json.Marshal(idx{
		ID:        id,
		File:      filename,
		Label:     snap.Label,
		Resources: len(snap.Resources),
		Users:     len(snap.Users),
		CreatedAt: snap.CreatedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, werr := f.Write(append(line, '\n'))
	return errors.Join(werr, f.Close())
}

// maskSnapshot returns a masked copy (does NOT mutate the input).
func maskSnapshot(snap domain.Snapshot) domain.Snapshot {
	out := snap
	out.Masked = true
	out.Resources = make([]domain.Resource, 0, len(snap.Resources))
	for _, r := range snap.Resources {
		c := r.Clone()
		for k := range c.Data.Data {
			if isSensitiveKey(k) {
				c.Data.Data[k] = domain.MaskedValue
			}
		}
		for k := range c.Data.Metadata {
			if isSensitiveKey(k) {
				c.Data.Metadata[k] = domain.MaskedValue
			}
		}
		out.Resources = append(out.Resources, c)
	}
	return out
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "api_key") ||
		strings.Contains(kk, "apikey")
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
