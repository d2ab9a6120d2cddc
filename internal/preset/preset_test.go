package preset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*Repository, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "presets.json"))
	return NewRepository(store, curve.Options{EnforceMonotonicDuty: true}), store
}

var quiet = []curve.TempPoint{
	{Temperature: 30, Fan: 0},
	{Temperature: 60, Fan: 25},
	{Temperature: 85, Fan: 60},
}

// TestEncodeDecode_RoundTrip verifies id, name and points survive serialization.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := New("Quiet", quiet)

	text, err := Encode(in)
	require.NoError(t, err)
	out, synthesized, err := Decode(text)
	require.NoError(t, err)

	assert.False(t, synthesized)
	assert.Equal(t, in, out)
}

// TestDecode_LegacyRecordGetsID verifies records without an id are assigned a fresh one.
func TestDecode_LegacyRecordGetsID(t *testing.T) {
	p, synthesized, err := Decode(`{"name":"Quiet","points":[{"temp":60,"fan":25},{"temp":30,"fan":0}]}`)
	require.NoError(t, err)

	assert.True(t, synthesized)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, "Quiet", p.ID)
	assert.Equal(t, []curve.TempPoint{{Temperature: 30, Fan: 0}, {Temperature: 60, Fan: 25}}, p.Points)
}

// TestDecode_MalformedFallsBackToDefault verifies parse failures substitute the built-in preset.
func TestDecode_MalformedFallsBackToDefault(t *testing.T) {
	for _, text := range []string{`{not json`, `{"name":"x"}`, `{"points":[]}`, `[]`} {
		p, _, err := Decode(text)
		assert.ErrorIs(t, err, ErrParseFailure, text)
		assert.Equal(t, Default(), p, text)
	}
}

func TestPreset_String(t *testing.T) {
	assert.Equal(t, "Default (max 20%)", Default().String())
}

// TestDefault_Curve verifies the built-in curve matches the documented lookups.
func TestDefault_Curve(t *testing.T) {
	c, err := Default().Curve(curve.Options{EnforceMonotonicDuty: true})
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, curve.PercentToDuty(0), c.DutyForTemperature(45000))
	assert.Equal(t, curve.PercentToDuty(10), c.DutyForTemperature(55000))
}

// TestRepository_CRUD verifies presets can be created, listed, updated and deleted.
func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault())

	created, err := repo.Create(ctx, "  Quiet ", quiet)
	require.NoError(t, err)
	assert.Equal(t, "Quiet", created.Name)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Name = "Silent"
	got.Points[2].Fan = 70
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Silent", list[1].Name)
	assert.Equal(t, 70, list[1].Points[2].Fan)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}

// TestRepository_DefaultIsReadOnly verifies the built-in preset cannot be changed.
func TestRepository_DefaultIsReadOnly(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	assert.ErrorIs(t, repo.Delete(ctx, DefaultID), ErrReadOnly)
	_, err := repo.Update(ctx, Default())
	assert.ErrorIs(t, err, ErrReadOnly)
}

// TestRepository_RejectsInvalidCurves verifies empty or non-monotonic curves are refused.
func TestRepository_RejectsInvalidCurves(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	_, err := repo.Create(ctx, "Empty", nil)
	assert.ErrorIs(t, err, curve.ErrInvalidCurve)

	_, err = repo.Create(ctx, "Falling", []curve.TempPoint{{Temperature: 30, Fan: 50}, {Temperature: 60, Fan: 20}})
	assert.ErrorIs(t, err, curve.ErrInvalidCurve)
}

// TestRepository_BlankNameGetsCustomName verifies unnamed presets are saved
// under the custom name.
func TestRepository_BlankNameGetsCustomName(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	p, err := repo.Create(ctx, " ", quiet)
	require.NoError(t, err)
	assert.Equal(t, DefaultCustomName, p.Name)

	p.Name = ""
	updated, err := repo.Update(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, DefaultCustomName, updated.Name)
}

// TestRepository_MigratesLegacyRecords verifies synthesized ids are persisted and stable.
func TestRepository_MigratesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	require.NoError(t, store.Save(Blob{Presets: []string{
		`{"name":"Legacy","points":[{"temp":40,"fan":20}]}`,
		`garbage`,
	}}))

	first, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first[1].ID, second[1].ID)
	assert.Equal(t, "Legacy", second[1].Name)
}

// TestRepository_KeepsUnreadableRecords verifies a save writes undecodable
// records back unchanged.
func TestRepository_KeepsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	const broken = `{"name":"Half written","points":[{"temp":40`
	require.NoError(t, store.Save(Blob{Presets: []string{
		broken,
		`{"id":"a","name":"Kept","points":[{"temp":40,"fan":20}]}`,
	}}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	created, err := repo.Create(ctx, "Quiet", quiet)
	require.NoError(t, err)
	require.NoError(t, repo.SetCurrent(ctx, created))
	require.NoError(t, repo.Delete(ctx, "a"))

	blob, err := store.Load()
	require.NoError(t, err)
	assert.Contains(t, blob.Presets, broken)
	assert.Len(t, blob.Presets, 2)
}

// TestRepository_LegacyCurrentGetsStableID verifies an id synthesized for the
// last applied preset is written back.
func TestRepository_LegacyCurrentGetsStableID(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	require.NoError(t, store.Save(Blob{Current: `{"name":"Legacy","points":[{"temp":40,"fan":20}]}`}))

	first, err := repo.Current(ctx)
	require.NoError(t, err)
	second, err := repo.Current(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Legacy", second.Name)

	blob, err := store.Load()
	require.NoError(t, err)
	assert.Contains(t, blob.Current, first.ID)
}

// TestRepository_EditedDefaultCurrentIgnored verifies a recorded Default with
// changed points reads back as the built-in preset.
func TestRepository_EditedDefaultCurrentIgnored(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	edited := Default()
	edited.Points = quiet
	text, err := Encode(edited)
	require.NoError(t, err)
	require.NoError(t, store.Save(Blob{Current: text}))

	cur, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), cur)
}

func TestPreset_ModifiesDefault(t *testing.T) {
	assert.False(t, Default().ModifiesDefault())
	assert.False(t, New("Quiet", quiet).ModifiesDefault())

	reordered := Default()
	reordered.Points = []curve.TempPoint{reordered.Points[3], reordered.Points[0], reordered.Points[2], reordered.Points[1]}
	assert.False(t, reordered.ModifiesDefault())

	edited := Default()
	edited.Points = quiet
	assert.True(t, edited.ModifiesDefault())
}

// TestRepository_Current verifies the last applied preset is remembered.
func TestRepository_Current(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	cur, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.True(t, cur.IsDefault())

	p, err := repo.Create(ctx, "Quiet", quiet)
	require.NoError(t, err)
	require.NoError(t, repo.SetCurrent(ctx, p))

	cur, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, cur)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// TestRepository_CorruptStore verifies an unreadable blob is treated as empty.
func TestRepository_CorruptStore(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{"), 0o600))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.Create(ctx, "Quiet", quiet)
	require.NoError(t, err)
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
