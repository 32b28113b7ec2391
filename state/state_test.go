package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirRoundTrip(t *testing.T) {
	dir := NewDir(t.TempDir())

	require.NoError(t, dir.Save("project/P1 settings", reducer.Record{"showDetails": true, "sort": "name"}))

	assert.Equal(t, Snapshot{"showDetails": true, "sort": "name"}, dir.Load("project/P1 settings"))
	assert.Equal(t, "project_P1_settings.yml", filepath.Base(dir.Path("project/P1 settings")))

	labels, err := dir.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"project_P1_settings"}, labels)

	require.NoError(t, dir.Delete("project/P1 settings"))
	require.NoError(t, dir.Delete("project/P1 settings"))
	assert.Empty(t, dir.Load("project/P1 settings"))
}

func TestLoadForgivesBadFiles(t *testing.T) {
	dir := NewDir(t.TempDir())

	assert.Equal(t, Snapshot{}, dir.Load("missing"))

	require.NoError(t, os.MkdirAll(dir.Root(), 0755))
	require.NoError(t, os.WriteFile(dir.Path("corrupt"), []byte("{not: [yaml"), 0644))
	assert.Equal(t, Snapshot{}, dir.Load("corrupt"))

	require.NoError(t, os.WriteFile(dir.Path("list"), []byte("- a\n- b\n"), 0644))
	assert.Equal(t, Snapshot{}, dir.Load("list"))
}

func TestRestore(t *testing.T) {
	dir := NewDir(t.TempDir())
	fallback := reducer.Record{"page": 1}

	assert.Equal(t, fallback, Restore(dir, "settings", fallback))

	require.NoError(t, dir.Save("settings", reducer.Record{"page": 3}))
	assert.Equal(t, reducer.Record{"page": 3}, Restore(dir, "settings", fallback))

	require.NoError(t, os.WriteFile(dir.Path("settings"), []byte(":::"), 0644))
	assert.Equal(t, fallback, Restore(dir, "settings", fallback))
}

func TestNewDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SEQRKIT_HOME", home)

	assert.Equal(t, filepath.Join(home, "state", "snapshots"), NewDir("").Root())
}

func TestPersisterThrottles(t *testing.T) {
	dir := NewDir(t.TempDir())
	p := NewPersister(dir, "settings", "uiSettings", 200*time.Millisecond)

	updates := make(chan store.Update, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, updates)
		close(done)
	}()

	send := func(page int) {
		updates <- store.Update{
			State:   store.State{"uiSettings": reducer.Record{"page": page}},
			Changed: []string{"uiSettings"},
		}
	}

	send(1)
	require.Eventually(t, func() bool {
		return dir.Load("settings")["page"] == 1
	}, time.Second, 5*time.Millisecond, "first change is written immediately")

	send(2)
	send(3)
	updates <- store.Update{State: store.State{"uiSettings": reducer.Record{"page": 99}}, Changed: []string{"other"}}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, dir.Load("settings")["page"], "changes inside the interval wait")

	require.Eventually(t, func() bool {
		return dir.Load("settings")["page"] == 3
	}, time.Second, 10*time.Millisecond, "latest value is flushed when the interval ends")

	send(4)
	close(updates)
	<-done
	cancel()
	assert.Equal(t, 4, dir.Load("settings")["page"], "pending value is written on shutdown")
}

func TestPersisterSwallowsWriteErrors(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	dir := NewDir(filepath.Join(blocker, "snapshots"))

	p := NewPersister(dir, "settings", "uiSettings", 0)
	updates := make(chan store.Update, 1)
	updates <- store.Update{State: store.State{"uiSettings": reducer.Record{"a": 1}}, Changed: []string{"uiSettings"}}
	close(updates)

	assert.NotPanics(t, func() { p.Run(context.Background(), updates) })
	assert.Empty(t, dir.Load("settings"))
}

func TestPersisterWithStore(t *testing.T) {
	dir := NewDir(t.TempDir())
	s := store.New(store.Register("uiSettings", reducer.Object("UPDATE_SETTINGS", Restore(dir, "settings", reducer.Record{"page": 1}))))
	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()

	ch := s.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPersister(dir, "settings", "uiSettings", 0).Run(ctx, ch)
		close(done)
	}()

	require.NoError(t, s.Dispatch(context.Background(), reducer.Merge{Type: "UPDATE_SETTINGS", Updates: map[string]any{"page": 2}}))
	require.Eventually(t, func() bool {
		return dir.Load("settings")["page"] == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	restored := Restore(dir, "settings", reducer.Record{})
	assert.Equal(t, reducer.Record{"page": 2}, restored)
}

func TestWatch(t *testing.T) {
	dir := NewDir(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := dir.Watch(ctx, "settings", 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, dir.Save("other", reducer.Record{"ignored": true}))
	require.NoError(t, dir.Save("settings", reducer.Record{"page": 1}))
	require.NoError(t, dir.Save("settings", reducer.Record{"page": 2}))

	timeout := time.After(2 * time.Second)
	for latest := 0; latest != 2; {
		select {
		case snap := <-snapshots:
			latest, _ = snap["page"].(int)
		case <-timeout:
			t.Fatal("no snapshot with the latest write received")
		}
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-snapshots
		return !open
	}, time.Second, 10*time.Millisecond)
}
