package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := New(WithDelay(50 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "Fill.lua")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ev := waitEvent(t, w)
	if ev.Path != path || !ev.Op.Has(OpCreate) {
		t.Errorf("event = %+v, want coalesced create of %s", ev, path)
	}
	select {
	case extra := <-w.Events():
		t.Errorf("burst produced a second event: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherFilter(t *testing.T) {
	dir := t.TempDir()
	w, err := New(WithDelay(20*time.Millisecond), WithFilter(func(p string) bool {
		return filepath.Ext(p) == ".lua"
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dot.lua"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ev := waitEvent(t, w); filepath.Base(ev.Path) != "Dot.lua" {
		t.Errorf("event for %s passed the filter", ev.Path)
	}
}

func TestWatchErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(filepath.Join(dir, "missing")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Watch(missing) error = %v", err)
	}
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(dir); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("second Watch() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Watch(dir); !errors.Is(err, ErrClosed) {
		t.Errorf("Watch() after Close error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("Events() not closed")
	}
}

type fakeTarget struct {
	mu      sync.Mutex
	loaded  []string
	removed []string
	fail    error
}

func (f *fakeTarget) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, path)
	return f.fail
}

func (f *fakeTarget) Remove(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return true
}

func (f *fakeTarget) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loaded), len(f.removed)
}

func TestReloaderApply(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "Fill.lua")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	target := &fakeTarget{}
	r := NewReloader(nil, target, nil)

	r.Apply(Event{Path: present, Op: OpWrite})
	r.Apply(Event{Path: filepath.Join(dir, "Gone.lua"), Op: OpRemove})

	if len(target.loaded) != 1 || target.loaded[0] != present {
		t.Errorf("loaded = %v", target.loaded)
	}
	if len(target.removed) != 1 || filepath.Base(target.removed[0]) != "Gone.lua" {
		t.Errorf("removed = %v", target.removed)
	}
}

func TestReloaderRun(t *testing.T) {
	dir := t.TempDir()
	w, err := New(WithDelay(20 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	target := &fakeTarget{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReloader(w, target, nil).Run(ctx)
		close(done)
	}()

	if err := os.WriteFile(filepath.Join(dir, "Dot.lua"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		if n, _ := target.counts(); n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("script was not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestReloaderOnChange(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "Fill.lua")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		ev   Event
		fail error
		want []string
	}{
		{"reload", Event{Path: present, Op: OpWrite}, nil, []string{present}},
		{"failed reload", Event{Path: present, Op: OpWrite}, errors.New("syntax error"), nil},
		{"removal", Event{Path: filepath.Join(dir, "Gone.lua"), Op: OpRemove}, nil, []string{filepath.Join(dir, "Gone.lua")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			r := NewReloader(nil, &fakeTarget{fail: tt.fail}, nil).OnChange(func(path string) {
				got = append(got, path)
			})
			r.Apply(tt.ev)
			if len(got) != len(tt.want) || (len(got) == 1 && got[0] != tt.want[0]) {
				t.Errorf("changes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReloaderRunNotifiesChange(t *testing.T) {
	dir := t.TempDir()
	w, err := New(WithDelay(20 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewReloader(w, &fakeTarget{}, nil).OnChange(func(path string) { changed <- path }).Run(ctx)

	path := filepath.Join(dir, "Dot.lua")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changed:
		if filepath.Base(got) != "Dot.lua" {
			t.Errorf("changed %s, want Dot.lua", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("change not reported")
	}
}
