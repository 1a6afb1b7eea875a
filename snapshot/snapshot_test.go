package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/spoktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *match.Matcher {
	m := match.NewMatcher(&match.Config{})
	m.Notify = func() {}
	return m
}

func record(t *testing.T, actual interface{}) *Recorder {
	next := &spoktest.Recorder{}
	r := NewRecorder(next)
	spec := match.Obj("$topic", "homer", "name", "homer", "age", match.GT(30))
	require.NoError(t, quiet().Check(r, actual, spec))
	require.Len(t, next.Calls, len(r.Records))
	return r
}

func TestRecorder(t *testing.T) {
	r := record(t, map[string]interface{}{"name": "homer", "age": 20})
	assert.Equal(t, []Record{
		{"equal", "1", "1", "spok: homer", true},
		{"equal", "'homer'", "'homer'", "·· name = 'homer'", true},
		{"equal", "false", "true", "·· age = 20", false},
	}, r.Records)
	assert.Equal(t, 1, r.Failures())
	assert.Equal(t, "not ok ·· age = 20 (false equal true)", r.Records[2].String())
}

func TestCompare(t *testing.T) {
	a := record(t, map[string]interface{}{"name": "homer", "age": 39}).Records
	b := record(t, map[string]interface{}{"name": "homer", "age": 39}).Records
	assert.Empty(t, Compare(a, b))

	c := record(t, map[string]interface{}{"name": "marge", "age": 39}).Records
	ds := Compare(a, c)
	require.Len(t, ds, 1)
	assert.Equal(t, 1, ds[0].Index)

	ds = Compare(a, a[:1])
	require.Len(t, ds, 2)
	assert.Nil(t, ds[0].Got)
	assert.Contains(t, ds[0].String(), "missing")

	ds = Compare(nil, a[:1])
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].String(), "unexpected")
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "snapshots.db"))
	s.Debug = true
	require.NoError(t, s.Open(ctx))
	defer func() {
		require.NoError(t, s.Close())
	}()

	_, err := s.Get(ctx, "homer")
	assert.Equal(t, ErrNotFound, err)

	snap := record(t, map[string]interface{}{"name": "homer", "age": 39}).Snapshot("homer")
	require.NoError(t, s.Put(ctx, snap))
	require.NoError(t, s.Put(ctx, &Snapshot{Name: "bart"}))

	got, err := s.Get(ctx, "homer")
	require.NoError(t, err)
	assert.Equal(t, snap.Records, got.Records)
	assert.True(t, snap.Created.Equal(got.Created))

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bart", "homer"}, names)

	require.NoError(t, s.Delete(ctx, "bart"))
	assert.Equal(t, ErrNotFound, s.Delete(ctx, "bart"))

	names, err = s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"homer"}, names)
}
