package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/memstore"
	"github.com/aalvaropc/tether/internal/infra/snapshot"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := snapshot.NewJSONStore(root, "", snapshot.WithNow(func() time.Time {
		return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	}))

	resources := memstore.New[domain.Resource]()
	users := newTestUsers()
	_, err := resources.Save(ctx, doc("r1", "alpha"))
	require.NoError(t, err)
	_, err = users.Add(ctx, NewUserInput{Email: "ops@example.com", Name: "Ops", Role: "manager"})
	require.NoError(t, err)

	id, err := NewTransfer(resources, users, store).Export(ctx, "nightly", "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "20260506T070809Z_nightly", id)
	_, err = os.Stat(filepath.Join(root, "exports", id+".json"))
	require.NoError(t, err)

	freshResources := memstore.New[domain.Resource]()
	freshUsers := newTestUsers()
	res, err := NewTransfer(freshResources, freshUsers, store).Import(ctx, store.Path(id), "")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Resources: 1, Users: 1}, res)

	got, ok, err := freshResources.FindByID(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Data.Name)

	u, err := freshUsers.Show(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, u.Role)
}

func TestExportRequiresPermission(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewJSONStore(t.TempDir(), "")
	users := newTestUsers()
	_, err := users.Add(ctx, NewUserInput{Email: "guest@example.com", Name: "Guest", Role: "guest"})
	require.NoError(t, err)

	tr := NewTransfer(memstore.New[domain.Resource](), users, store)

	_, err = tr.Export(ctx, "x", "guest@example.com")
	assert.True(t, domain.IsKind(err, domain.KindPermissionDenied))

	_, err = tr.Import(ctx, "missing.json", "guest@example.com")
	assert.True(t, domain.IsKind(err, domain.KindPermissionDenied))

	_, err = tr.Import(ctx, filepath.Join(t.TempDir(), "missing.json"), "")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

// writeSnapshot stores snap unmasked and returns its path.
func writeSnapshot(t *testing.T, snap domain.Snapshot) string {
	t.Helper()
	store := snapshot.NewJSONStore(t.TempDir(), "", snapshot.WithMasking(false))
	id, err := store.SaveSnapshot(snap)
	require.NoError(t, err)
	return store.Path(id)
}

func importInto(ctx context.Context, resources *memstore.Store[domain.Resource], users *UserService, path string) (ImportResult, error) {
	return NewTransfer(resources, users, snapshot.NewJSONStore("", "")).Import(ctx, path, "")
}

func TestImportRejectsEmailTakenLocally(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers()
	_, err := users.Add(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	resources := memstore.New[domain.Resource]()

	path := writeSnapshot(t, domain.Snapshot{
		Resources: []domain.Resource{doc("r1", "alpha")},
		Users:     []domain.User{domain.NewUser("other", "A@example.com", "Other A")},
	})

	_, err = importInto(ctx, resources, users, path)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyExists))

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	n, err := resources.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is written when the snapshot is rejected")
}

func TestImportRejectsEmailRepeatedInSnapshot(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers()

	path := writeSnapshot(t, domain.Snapshot{
		Users: []domain.User{
			domain.NewUser("x", "dup@example.com", "X"),
			domain.NewUser("y", "DUP@example.com", "Y"),
		},
	})

	_, err := importInto(ctx, memstore.New[domain.Resource](), users, path)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyExists))

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportReplacesSameUserID(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers()
	u, err := users.Add(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	renamed := u
	renamed.Name = "A renamed"
	renamed.Email = "A@example.com"
	path := writeSnapshot(t, domain.Snapshot{Users: []domain.User{renamed}})

	res, err := importInto(ctx, memstore.New[domain.Resource](), users, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)

	got, err := users.Show(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A renamed", got.Name)
}

// failingRepo fails Save for one id and passes everything else through.
type failingRepo struct {
	*memstore.Store[domain.User]
	failID string
}

func (f failingRepo) Save(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == f.failID {
		return domain.User{}, domain.NewError("repo.save", domain.KindDatabase, "disk full")
	}
	return f.Store.Save(ctx, u)
}

func TestImportRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	resources := memstore.New[domain.Resource]()
	_, err := resources.Save(ctx, doc("r1", "before"))
	require.NoError(t, err)

	userRepo := memstore.New[domain.User]()
	users := NewUserService(failingRepo{Store: userRepo, failID: "u2"})

	path := writeSnapshot(t, domain.Snapshot{
		Resources: []domain.Resource{doc("r1", "after"), doc("r2", "new")},
		Users: []domain.User{
			domain.NewUser("u1", "one@example.com", "One"),
			domain.NewUser("u2", "two@example.com", "Two"),
		},
	})

	_, err = importInto(ctx, resources, users, path)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindDatabase))

	r1, ok, err := resources.FindByID(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "before", r1.Data.Name)
	_, ok, err = resources.FindByID(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := userRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaskedExportImportKeepsSecrets(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := snapshot.NewJSONStore(root, "", snapshot.WithNow(func() time.Time { return now }))

	secret := domain.NewResource("cfg", domain.NewResourceData("db", domain.ResourceSettings).
		WithData("db_password", "hunter2").
		WithData("host", "db.local"))
	resources := memstore.New[domain.Resource]()
	_, err := resources.Save(ctx, secret)
	require.NoError(t, err)
	tr := NewTransfer(resources, newTestUsers(), store)

	id1, err := tr.Export(ctx, "export", "")
	require.NoError(t, err)
	id2, err := tr.Export(ctx, "export", "")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	// Restoring over the same repository keeps the real value.
	res, err := tr.Import(ctx, store.Path(id1), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Masked)
	got, _, err := resources.FindByID(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Data.Data["db_password"])
	assert.Equal(t, "db.local", got.Data.Data["host"])

	// A fresh repository has no local value, so the key is left out.
	fresh := memstore.New[domain.Resource]()
	_, err = NewTransfer(fresh, newTestUsers(), store).Import(ctx, store.Path(id2), "")
	require.NoError(t, err)
	got, _, err = fresh.FindByID(ctx, "cfg")
	require.NoError(t, err)
	_, present := got.Data.Data["db_password"]
	assert.False(t, present)
	assert.Equal(t, "db.local", got.Data.Data["host"])
}

func TestUnmaskedExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewJSONStore(t.TempDir(), "", snapshot.WithMasking(false))

	resources := memstore.New[domain.Resource]()
	_, err := resources.Save(ctx, domain.NewResource("cfg", domain.NewResourceData("db", domain.ResourceSettings).
		WithData("db_password", "hunter2")))
	require.NoError(t, err)

	id, err := NewTransfer(resources, newTestUsers(), store).Export(ctx, "full", "")
	require.NoError(t, err)

	fresh := memstore.New[domain.Resource]()
	res, err := NewTransfer(fresh, newTestUsers(), store).Import(ctx, store.Path(id), "")
	require.NoError(t, err)
	assert.Zero(t, res.Masked)
	got, _, err := fresh.FindByID(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Data.Data["db_password"])
}
