package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
	"github.com/aalvaropc/tether/internal/validate"
)

// Transfer exports and imports the local repositories as snapshots.
type Transfer struct {
	resources ports.Repository[domain.Resource]
	users     *UserService
	snapshots ports.SnapshotStore
}

func NewTransfer(resources ports.Repository[domain.Resource], users *UserService, snapshots ports.SnapshotStore) *Transfer {
	return &Transfer{resources: resources, users: users, snapshots: snapshots}
}

// Export writes a snapshot and returns its id. A non-empty as must name a
// user holding export_data.
func (t *Transfer) Export(ctx context.Context, label, as string) (string, error) {
	snap := domain.Snapshot{Version: domain.SnapshotVersion, Label: label}
	if as != "" {
		u, err := t.users.Authorize(ctx, as, domain.PermExportData)
		if err != nil {
			return "", err
		}
		snap.CreatedBy = u.ID
	}

	var err error
	if snap.Resources, err = t.resources.FindAll(ctx); err != nil {
		return "", err
	}
	if snap.Users, err = t.users.List(ctx); err != nil {
		return "", err
	}
	return t.snapshots.SaveSnapshot(snap)
}

// ImportResult counts what Import saved. Masked counts sensitive values
// that arrived masked; each kept its local value or was left out.
type ImportResult struct {
	Resources int
	Users     int
	Masked    int
}

// Import upserts every entity of the snapshot at path. A non-empty as must
// name a user holding import_data. The whole snapshot is checked before the
// first write, and a failed write undoes the writes before it.
func (t *Transfer) Import(ctx context.Context, path, as string) (ImportResult, error) {
	if as != "" {
		if _, err := t.users.Authorize(ctx, as, domain.PermImportData); err != nil {
			return ImportResult{}, err
		}
	}

	snap, err := t.snapshots.LoadSnapshot(path)
	if err != nil {
		return ImportResult{}, err
	}

	users, err := t.planUsers(ctx, snap.Users)
	if err != nil {
		return ImportResult{}, err
	}
	resources, masked, err := t.planResources(ctx, snap.Resources)
	if err != nil {
		return ImportResult{}, err
	}

	var undo []func() error
	rollback := func(cause error) error {
		var errs []error
		for i := len(undo) - 1; i >= 0; i-- {
			if err := undo[i](); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return errors.Join(append([]error{cause, errors.New("rollback incomplete")}, errs...)...)
		}
		return cause
	}

	for _, w := range resources {
		if _, err := t.resources.Save(ctx, w.next); err != nil {
			return ImportResult{}, rollback(err)
		}
		undo = append(undo, restore(ctx, t.resources, w))
	}
	for _, w := range users {
		if _, err := t.users.repo.Save(ctx, w.next); err != nil {
			return ImportResult{}, rollback(err)
		}
		undo = append(undo, restore(ctx, t.users.repo, w))
	}

	return ImportResult{Resources: len(resources), Users: len(users), Masked: masked}, nil
}

// write is one planned upsert and what it replaces.
type write[T ports.Entity] struct {
	next    T
	prev    T
	existed bool
}

func restore[T ports.Entity](ctx context.Context, repo ports.Repository[T], w write[T]) func() error {
	return func() error {
		if w.existed {
			_, err := repo.Save(ctx, w.prev)
			return err
		}
		_, err := repo.Delete(ctx, w.next.EntityID())
		return err
	}
}

// planUsers rejects empty or repeated IDs, bad emails and emails that
// collide, case-insensitively, within the snapshot or with a local user the
// snapshot does not replace.
func (t *Transfer) planUsers(ctx context.Context, in []domain.User) ([]write[domain.User], error) {
	const op = "transfer.import"

	incoming := make(map[string]bool, len(in))
	for _, u := range in {
		if strings.TrimSpace(u.ID) == "" {
			return nil, &domain.OpError{Op: op, Kind: domain.KindValidation, Path: u.Email, Err: errors.New("user without id")}
		}
		if incoming[u.ID] {
			return nil, &domain.OpError{Op: op, Kind: domain.KindValidation, Path: u.ID, Err: errors.New("user id appears twice in snapshot")}
		}
		incoming[u.ID] = true
	}

	existing, err := t.users.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]string, len(existing)+len(in))
	prevs := make(map[string]domain.User, len(existing))
	for _, e := range existing {
		prevs[e.ID] = e
		if !incoming[e.ID] {
			owners[strings.ToLower(strings.TrimSpace(e.Email))] = e.ID
		}
	}

	out := make([]write[domain.User], 0, len(in))
	for _, u := range in {
		if err := validate.Email(strings.TrimSpace(u.Email), "email"); err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindValidation, Path: u.ID, Err: err}
		}
		key := strings.ToLower(strings.TrimSpace(u.Email))
		if owner, ok := owners[key]; ok {
			return nil, &domain.OpError{Op: op, Kind: domain.KindAlreadyExists, Path: u.Email, Err: fmt.Errorf("email already registered to %s", owner)}
		}
		owners[key] = u.ID

		prev, existed := prevs[u.ID]
		out = append(out, write[domain.User]{next: u, prev: prev, existed: existed})
	}
	return out, nil
}

// planResources validates every resource and resolves masked values against
// the local copy.
func (t *Transfer) planResources(ctx context.Context, in []domain.Resource) ([]write[domain.Resource], int, error) {
	const op = "transfer.import"

	seen := make(map[string]bool, len(in))
	out := make([]write[domain.Resource], 0, len(in))
	masked := 0
	for _, r := range in {
		if strings.TrimSpace(r.ID) == "" {
			return nil, 0, &domain.OpError{Op: op, Kind: domain.KindValidation, Path: r.Data.Name, Err: errors.New("resource without id")}
		}
		if seen[r.ID] {
			return nil, 0, &domain.OpError{Op: op, Kind: domain.KindValidation, Path: r.ID, Err: errors.New("resource id appears twice in snapshot")}
		}
		seen[r.ID] = true
		if err := ValidateResourceData(r.Data); err != nil {
			return nil, 0, err
		}

		prev, existed, err := t.resources.FindByID(ctx, r.ID)
		if err != nil {
			return nil, 0, err
		}
		next := r.Clone()
		masked += unmask(next.Data.Data, prev.Data.Data)
		masked += unmask(next.Data.Metadata, prev.Data.Metadata)
		out = append(out, write[domain.Resource]{next: next, prev: prev, existed: existed})
	}
	return out, masked, nil
}

// unmask replaces masked values in dst with the local value from src, or
// drops the key when there is none.
func unmask(dst, src map[string]string) int {
	n := 0
	for k, v := range dst {
		if v != domain.MaskedValue {
			continue
		}
		n++
		if local, ok := src[k]; ok && local != domain.MaskedValue {
			dst[k] = local
		} else {
			delete(dst, k)
		}
	}
	return n
}
