package settings

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get unset = ok %v, err %v", ok, err)
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete unset key: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetRegion(ctx, RegionEU); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	r, err := s2.Region(ctx)
	if err != nil || r != RegionEU {
		t.Fatalf("Region after reopen = %q, %v", r, err)
	}
}

func TestStore_ObserversCalledInOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var got []string
	s.Subscribe(func(c Change) { got = append(got, "a:"+c.Key) })
	cancel := s.Subscribe(func(c Change) { got = append(got, "b:"+c.Key) })

	if err := s.Set(ctx, KeyRegion, "US"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Observers run synchronously, so the result is visible right away.
	if len(got) != 2 || got[0] != "a:gameRegion" || got[1] != "b:gameRegion" {
		t.Fatalf("observer calls = %v", got)
	}

	cancel()
	got = nil
	if err := s.Delete(ctx, KeyRegion); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(got) != 1 || got[0] != "a:gameRegion" {
		t.Fatalf("observer calls after cancel = %v", got)
	}
}

func TestStore_ObserverMayReadStore(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var seen time.Time
	s.Subscribe(func(c Change) {
		if c.Key == KeyLastUpdate {
			seen, _, _ = s.LastUpdate(ctx)
		}
	})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastUpdate(ctx, now); err != nil {
		t.Fatalf("SetLastUpdate: %v", err)
	}
	if !seen.Equal(now) {
		t.Fatalf("observer saw %v, want %v", seen, now)
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.SetLastUpdate(ctx, time.Now()); err != nil {
				t.Errorf("SetLastUpdate: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, ok, err := s.LastUpdate(ctx); err != nil || !ok {
		t.Fatalf("LastUpdate = %v, %v", ok, err)
	}
}

func TestStore_ObserversSeeCommitOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var mu sync.Mutex
	var seen []string
	s.Subscribe(func(c Change) {
		mu.Lock()
		seen = append(seen, c.Value)
		mu.Unlock()
	})

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Set(ctx, "k", strconv.Itoa(i)); err != nil {
				t.Errorf("Set: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(seen) != writers {
		t.Fatalf("observer called %d times, want %d", len(seen), writers)
	}
	if seen[len(seen)-1] != stored {
		t.Fatalf("last notification %q, stored value %q", seen[len(seen)-1], stored)
	}
}

func TestStore_UnreadableLastUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	l := logger.NewMockLogger()
	s.SetLogger(l)

	if err := s.Set(ctx, KeyLastUpdate, "yesterday"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := s.LastUpdate(ctx); err != nil || ok {
		t.Fatalf("LastUpdate = ok %v, err %v, want unset", ok, err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.HasLastUpdate {
		t.Fatal("unreadable lastUpdate must read as unset")
	}
	if len(l.Warnings()) == 0 {
		t.Fatal("expected a warning for the unreadable value")
	}
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"US", RegionUS, false},
		{"eu", RegionEU, false},
		{" Eu ", RegionEU, false},
		{"NA", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRegion(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestStore_UpdateInterval(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d, err := s.UpdateInterval(ctx)
	if err != nil || d != DefaultUpdateInterval {
		t.Fatalf("default interval = %v, %v", d, err)
	}
	if err := s.SetUpdateInterval(ctx, 30*time.Second); !errors.Is(err, ErrIntervalTooShort) {
		t.Fatalf("expected ErrIntervalTooShort, got %v", err)
	}
	if err := s.SetUpdateInterval(ctx, 90*time.Minute); err != nil {
		t.Fatalf("SetUpdateInterval: %v", err)
	}
	if d, _ := s.UpdateInterval(ctx); d != 90*time.Minute {
		t.Fatalf("interval = %v, want 90m", d)
	}
	v, _, _ := s.Get(ctx, KeyUpdateInterval)
	if v != "5400" {
		t.Fatalf("stored interval = %q, want seconds", v)
	}

	if err := s.Set(ctx, KeyUpdateInterval, "garbage"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d, _ := s.UpdateInterval(ctx); d != DefaultUpdateInterval {
		t.Fatalf("garbage interval should read as default, got %v", d)
	}
}

func TestStore_Destination(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if h, err := s.Destination(ctx); err != nil || h != nil {
		t.Fatalf("unset destination = %+v, %v", h, err)
	}
	if err := s.SetDestination(ctx, &secscope.Handle{Path: "/x"}); err == nil {
		t.Fatal("expected error storing a handle without token")
	}

	want := &secscope.Handle{Path: "/addons/TamrielTradeCentre", Token: []byte{1, 2, 3}}
	if err := s.SetDestination(ctx, want); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}
	got, err := s.Destination(ctx)
	if err != nil {
		t.Fatalf("Destination: %v", err)
	}
	if got.Path != want.Path || string(got.Token) != string(want.Token) {
		t.Fatalf("Destination = %+v, want %+v", got, want)
	}
	if err := s.ClearDestination(ctx); err != nil {
		t.Fatalf("ClearDestination: %v", err)
	}
	if h, _ := s.Destination(ctx); h != nil {
		t.Fatal("expected destination to be cleared")
	}
}

func TestStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Region != "" || snap.HasLastUpdate || snap.Destination != nil || snap.UpdateInterval != DefaultUpdateInterval {
		t.Fatalf("empty snapshot = %+v", snap)
	}

	now := time.Now().UTC().Truncate(time.Second)
	s.SetRegion(ctx, RegionUS)
	s.SetLastUpdate(ctx, now)
	snap, err = s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Region != RegionUS || !snap.HasLastUpdate || !snap.LastUpdate.Equal(now) {
		t.Fatalf("snapshot = %+v", snap)
	}
}
