package ephemeris

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/model"
)

// Entry is one satellite's broadcast ephemeris with its validity window.
// Entries are read-only once stored; the visibility core borrows them for
// the duration of a single propagation call.
type Entry struct {
	SatelliteID string
	Elements    model.OrbitalElements
	Validity    model.ValidityWindow
}

// Store is an in-memory, thread-safe ephemeris table. It also keeps TLE
// fallback sources for catalog satellites without broadcast ephemeris, and
// implements core.EphemerisProvider over both.
type Store struct {
	mu sync.RWMutex

	entries map[string]*Entry
	tles    map[string]*core.TLESource
}

// NewStore constructs an empty ephemeris store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
		tles:    make(map[string]*core.TLESource),
	}
}

// Put stores an entry, replacing any previous elements for the same
// satellite: a freshly broadcast ephemeris always supersedes an older one.
func (s *Store) Put(e *Entry) error {
	if e == nil || e.SatelliteID == "" {
		return fmt.Errorf("%w: ephemeris entry", core.ErrMissingParameter)
	}
	if e.Validity.To.Before(e.Validity.From) {
		return fmt.Errorf("%w: validity window ends before it starts", core.ErrMissingParameter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.SatelliteID] = e
	return nil
}

// PutTLE registers a TLE fallback source for a satellite. The lines are
// parsed once; a parse-level failure is reported immediately.
func (s *Store) PutTLE(satelliteID, line1, line2 string) error {
	if satelliteID == "" {
		return fmt.Errorf("%w: satellite ID", core.ErrMissingParameter)
	}
	src, err := core.NewTLESource(line1, line2)
	if err != nil {
		return fmt.Errorf("satellite %s: %w", satelliteID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tles[satelliteID] = src
	return nil
}

// Get returns the broadcast entry for a satellite.
func (s *Store) Get(satelliteID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[satelliteID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSatelliteNotFound, satelliteID)
	}
	return e, nil
}

// List returns all broadcast entries sorted by satellite ID.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SatelliteID < out[j].SatelliteID })
	return out
}

// Len returns the number of broadcast entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PositionSource implements core.EphemerisProvider. Broadcast elements are
// preferred; a TLE source serves satellites tracked without them.
func (s *Store) PositionSource(satelliteID string) (core.PositionSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[satelliteID]; ok {
		return &core.BroadcastEphemerisSource{Elements: e.Elements, Validity: e.Validity}, nil
	}
	if src, ok := s.tles[satelliteID]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrSatelliteNotFound, satelliteID)
}
