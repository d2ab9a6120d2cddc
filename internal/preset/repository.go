package preset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// Repository keeps the preset library and the last applied preset
type Repository struct {
	mu    sync.Mutex
	store *Store
	opts  curve.Options
}

// NewRepository creates a repository over store. opts is used to validate curves.
func NewRepository(store *Store, opts curve.Options) *Repository {
	return &Repository{store: store, opts: opts}
}

// List returns the built-in preset followed by the stored ones
func (r *Repository) List(ctx context.Context) ([]Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return nil, err
	}
	return append([]Preset{Default()}, lib.presets...), nil
}

// Get returns the preset with the given id
func (r *Repository) Get(ctx context.Context, id string) (Preset, error) {
	if id == DefaultID {
		return Default(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return Preset{}, err
	}
	for _, p := range lib.presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create validates and stores a new preset. A blank name becomes DefaultCustomName.
func (r *Repository) Create(ctx context.Context, name string, points []curve.TempPoint) (Preset, error) {
	p := New(customName(name), points)
	if err := r.validate(p); err != nil {
		return Preset{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return Preset{}, err
	}
	lib.presets = append(lib.presets, p)
	if err := r.save(lib); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Update replaces the name and points of an existing preset
func (r *Repository) Update(ctx context.Context, p Preset) (Preset, error) {
	if p.IsDefault() {
		return Preset{}, fmt.Errorf("%w: %s", ErrReadOnly, p.Name)
	}
	p.Name = customName(p.Name)
	p.Points = append([]curve.TempPoint(nil), p.Points...)
	p.sortPoints()
	if err := r.validate(p); err != nil {
		return Preset{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return Preset{}, err
	}
	found := false
	for i := range lib.presets {
		if lib.presets[i].ID == p.ID {
			lib.presets[i] = p
			found = true
			break
		}
	}
	if !found {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	if err := r.save(lib); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Delete removes a stored preset
func (r *Repository) Delete(ctx context.Context, id string) error {
	if id == DefaultID {
		return fmt.Errorf("%w: %s", ErrReadOnly, DefaultName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return err
	}
	kept := make([]Preset, 0, len(lib.presets))
	for _, p := range lib.presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(lib.presets) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	lib.presets = kept
	return r.save(lib)
}

// Current returns the last applied preset, or Default when none was recorded.
// A legacy record without an id is given one and written back.
func (r *Repository) Current(ctx context.Context) (Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := r.loadBlob()
	if err != nil {
		return Preset{}, err
	}
	if blob.Current == "" {
		return Default(), nil
	}

	p, synthesized, err := Decode(blob.Current)
	if err != nil {
		log.Printf("Current preset unreadable, using default: %v", err)
		return p, nil
	}
	if p.ModifiesDefault() {
		log.Printf("Current preset edits the built-in curve, using default")
		return Default(), nil
	}
	if synthesized {
		if blob.Current, err = Encode(p); err != nil {
			return Preset{}, err
		}
		if err := r.store.Save(blob); err != nil {
			return Preset{}, err
		}
	}
	return p, nil
}

// SetCurrent records p as the last applied preset
func (r *Repository) SetCurrent(ctx context.Context, p Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := r.load()
	if err != nil {
		return err
	}
	if lib.current, err = Encode(p); err != nil {
		return err
	}
	return r.save(lib)
}

func (r *Repository) validate(p Preset) error {
	c, err := p.Curve(r.opts)
	if err != nil {
		return err
	}
	return c.Validate()
}

func customName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return DefaultCustomName
	}
	return name
}

// library is the decoded blob. Records that could not be decoded are kept
// verbatim so a save never discards them.
type library struct {
	presets    []Preset
	unreadable []string
	current    string
}

// loadBlob reads the blob, recovering an unreadable file as empty
func (r *Repository) loadBlob() (Blob, error) {
	blob, err := r.store.Load()
	if errors.Is(err, ErrParseFailure) {
		log.Printf("Preset store %s unreadable, starting empty: %v", r.store.Path(), err)
		return Blob{}, nil
	}
	return blob, err
}

// load decodes stored presets. Records missing an id are given one and
// written back.
func (r *Repository) load() (library, error) {
	blob, err := r.loadBlob()
	if err != nil {
		return library{}, err
	}

	lib := library{presets: make([]Preset, 0, len(blob.Presets)), current: blob.Current}
	migrated := false
	for _, text := range blob.Presets {
		p, synthesized, err := Decode(text)
		if err != nil {
			log.Printf("Keeping unreadable stored preset: %v", err)
			lib.unreadable = append(lib.unreadable, text)
			continue
		}
		if p.IsDefault() {
			continue
		}
		migrated = migrated || synthesized
		lib.presets = append(lib.presets, p)
	}

	if migrated {
		if err := r.save(lib); err != nil {
			return library{}, err
		}
	}
	return lib, nil
}

func (r *Repository) save(lib library) error {
	blob := Blob{Presets: make([]string, 0, len(lib.presets)+len(lib.unreadable)), Current: lib.current}
	for _, p := range lib.presets {
		text, err := Encode(p)
		if err != nil {
			return err
		}
		blob.Presets = append(blob.Presets, text)
	}
	blob.Presets = append(blob.Presets, lib.unreadable...)
	return r.store.Save(blob)
}
