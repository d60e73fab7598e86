package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warpdl/ttcsync/internal/secscope"
)

// Persisted keys. The names match what earlier releases wrote.
const (
	KeyLastUpdate     = "lastUpdate"
	KeyRegion         = "gameRegion"
	KeyDestination    = "securityScopedPluginURL"
	KeyUpdateInterval = "updateInterval"
)

const (
	DefaultUpdateInterval = 3 * time.Hour
	MinUpdateInterval     = 60 * time.Second
)

var (
	ErrIntervalTooShort = fmt.Errorf("update interval must be at least %s", MinUpdateInterval)
	ErrInvalidRegion    = errors.New("region must be US or EU")
)

// Region is the game's megaserver region.
type Region string

const (
	RegionUS Region = "US"
	RegionEU Region = "EU"
)

// ParseRegion accepts US or EU in any case.
func ParseRegion(s string) (Region, error) {
	switch Region(strings.ToUpper(strings.TrimSpace(s))) {
	case RegionUS:
		return RegionUS, nil
	case RegionEU:
		return RegionEU, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRegion, s)
}

// Region returns the configured region, or "" when unset. A stored value
// that is not a known region reads as unset.
func (s *Store) Region(ctx context.Context) (Region, error) {
	v, ok, err := s.Get(ctx, KeyRegion)
	if err != nil || !ok {
		return "", err
	}
	r, err := ParseRegion(v)
	if err != nil {
		return "", nil
	}
	return r, nil
}

func (s *Store) SetRegion(ctx context.Context, r Region) error {
	if _, err := ParseRegion(string(r)); err != nil {
		return err
	}
	return s.Set(ctx, KeyRegion, string(r))
}

// LastUpdate returns the time of the last successful update. ok is false
// when no update has completed yet, or the stored value is unreadable.
func (s *Store) LastUpdate(ctx context.Context) (t time.Time, ok bool, err error) {
	v, ok, err := s.Get(ctx, KeyLastUpdate)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(time.RFC3339Nano, v)
	if perr != nil {
		s.log.Warning("settings: ignoring unreadable %s %q: %v", KeyLastUpdate, v, perr)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (s *Store) SetLastUpdate(ctx context.Context, t time.Time) error {
	return s.Set(ctx, KeyLastUpdate, t.UTC().Format(time.RFC3339Nano))
}

// UpdateInterval returns the configured interval, DefaultUpdateInterval
// when unset or unreadable.
func (s *Store) UpdateInterval(ctx context.Context) (time.Duration, error) {
	v, ok, err := s.Get(ctx, KeyUpdateInterval)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultUpdateInterval, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || time.Duration(secs)*time.Second < MinUpdateInterval {
		return DefaultUpdateInterval, nil
	}
	return time.Duration(secs) * time.Second, nil
}

func (s *Store) SetUpdateInterval(ctx context.Context, d time.Duration) error {
	if d < MinUpdateInterval {
		return ErrIntervalTooShort
	}
	return s.Set(ctx, KeyUpdateInterval, strconv.FormatInt(int64(d/time.Second), 10))
}

// Destination returns the stored destination handle, nil when unset.
func (s *Store) Destination(ctx context.Context) (*secscope.Handle, error) {
	v, ok, err := s.Get(ctx, KeyDestination)
	if err != nil || !ok {
		return nil, err
	}
	var h secscope.Handle
	if err := json.Unmarshal([]byte(v), &h); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", KeyDestination, err)
	}
	return &h, nil
}

func (s *Store) SetDestination(ctx context.Context, h *secscope.Handle) error {
	if !h.Valid() {
		return errors.New("settings: refusing to store an empty handle")
	}
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return s.Set(ctx, KeyDestination, string(b))
}

func (s *Store) ClearDestination(ctx context.Context) error {
	return s.Delete(ctx, KeyDestination)
}

// Snapshot is a point-in-time read of all settings. Keys are read one by
// one, so a concurrent write may interleave.
type Snapshot struct {
	Region         Region
	LastUpdate     time.Time
	HasLastUpdate  bool
	Destination    *secscope.Handle
	UpdateInterval time.Duration
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Region, err = s.Region(ctx); err != nil {
		return snap, err
	}
	if snap.LastUpdate, snap.HasLastUpdate, err = s.LastUpdate(ctx); err != nil {
		return snap, err
	}
	if snap.Destination, err = s.Destination(ctx); err != nil {
		return snap, err
	}
	if snap.UpdateInterval, err = s.UpdateInterval(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}
