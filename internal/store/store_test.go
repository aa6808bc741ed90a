package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattsup/internal/diagram"
)

func canvasSnapshot(t *testing.T, user string, types ...diagram.ElementType) *diagram.Snapshot {
	t.Helper()
	c := diagram.NewCanvas(20)
	var prev int64
	for i, et := range types {
		el, ok := c.Place(et, diagram.Point{X: i * 40})
		require.True(t, ok)
		if prev != 0 {
			c.Connect(prev, el.ID)
		}
		prev = el.ID
	}
	s := c.Snapshot()
	s.UserID = user
	return s
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"file":   fs,
		"memory": NewMemoryStore(),
		"redis":  newTestRedis(t),
	}
}

func TestSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Latest(ctx, "alice")
			assert.ErrorIs(t, err, ErrNotFound)

			first := canvasSnapshot(t, "alice", diagram.Switch, diagram.Light)
			require.NoError(t, st.Save(ctx, first))
			assert.NotEmpty(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())
			assert.Equal(t, time.UTC, first.CreatedAt.Location())

			second := canvasSnapshot(t, "alice", diagram.Outlet)
			require.NoError(t, st.Save(ctx, second))
			assert.NotEqual(t, first.ID, second.ID)

			got, err := st.Latest(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, second.ID, got.ID)
			assert.Equal(t, second.Elements, got.Elements)
			assert.Empty(t, got.Wires)

			c, err := diagram.FromSnapshot(got, 20)
			require.NoError(t, err)
			assert.Equal(t, []diagram.TakeoffEntry{{Item: "Outlet", Quantity: 1}}, c.Takeoff())

			_, err = st.Latest(ctx, "bob")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, st.Close(ctx))
		})
	}
}

func TestSaveRejectsInvalidUsers(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, user := range []string{"", "..", "a/b", `a\b`} {
				err := st.Save(ctx, canvasSnapshot(t, user, diagram.Outlet))
				assert.ErrorIs(t, err, ErrInvalidUser, user)
				_, err = st.Latest(ctx, user)
				assert.ErrorIs(t, err, ErrInvalidUser, user)
			}
			assert.Error(t, st.Save(ctx, nil))
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := canvasSnapshot(t, "alice", diagram.Outlet)
	require.NoError(t, m.Save(ctx, s))
	s.Elements[0].Label = "changed"

	got, err := m.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Outlet", got.Elements[0].Label)
	got.Elements[0].Label = "again"

	got, _ = m.Latest(ctx, "alice")
	assert.Equal(t, "Outlet", got.Elements[0].Label)

	require.NoError(t, m.Save(ctx, canvasSnapshot(t, "alice")))
	assert.Equal(t, 2, m.History("alice"))
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Save(context.Background(), canvasSnapshot(t, "alice", diagram.Light)))

	data, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"userId": "alice"`)
	assert.Contains(t, string(data), `"type": "light"`)
	assert.NoFileExists(t, filepath.Join(dir, "alice.json.tmp"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))
	_, err = fs.Latest(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	dir := t.TempDir()
	st, err = Open(ctx, Config{Path: dir})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, st)
	assert.Equal(t, dir, st.(*FileStore).Path())

	_, err = Open(ctx, Config{Driver: "sqlite"})
	assert.Error(t, err)
}
