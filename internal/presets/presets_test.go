package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "presets.json"))
	require.NoError(t, err)
	return s
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	assert.Empty(t, s.List())
}

func TestAddDefaultsAndPersistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "presets.json")
	s, err := Open(path)
	require.NoError(t, err)

	p, err := s.Add(Preset{Freq: "106.9"})
	require.NoError(t, err)
	assert.Equal(t, "106.9 MHz P0", p.Name)
	assert.Equal(t, "0", p.Prog)

	_, err = s.Add(Preset{Name: "Jazz", Freq: "90.1", Prog: "2"})
	require.NoError(t, err)

	// A fresh store must see what the first one wrote.
	reopened, err := Open(path)
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Jazz", list[1].Name)
}

func TestAddRejectsBadFrequency(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.Add(Preset{Name: "nope"})
	assert.Error(t, err)
	_, err = s.Add(Preset{Name: "nope", Freq: "ninety"})
	assert.Error(t, err)
	assert.Empty(t, s.List())
}

func TestRemoveAndFind(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.Add(Preset{Name: "A", Freq: "88.5"})
	require.NoError(t, err)
	_, err = s.Add(Preset{Name: "B", Freq: "94.3", Prog: "1"})
	require.NoError(t, err)

	p, ok := s.Find("B")
	require.True(t, ok)
	assert.Equal(t, "94.3", p.Freq)

	require.NoError(t, s.Remove("A"))
	assert.Error(t, s.Remove("A"), "second remove must report the missing name")

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)
}

func TestMove(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	for _, name := range []string{"one", "two", "three"} {
		_, err := s.Add(Preset{Name: name, Freq: "100.1"})
		require.NoError(t, err)
	}

	require.NoError(t, s.Move("three", -2))
	names := func() []string {
		var out []string
		for _, p := range s.List() {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"three", "one", "two"}, names())

	assert.Error(t, s.Move("three", -1), "cannot move past the front")
	assert.Error(t, s.Move("two", 1), "cannot move past the end")
	assert.Error(t, s.Move("missing", 1))
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.Add(Preset{Name: "Rock", Freq: "106.9", Prog: "0"})
	require.NoError(t, err)
	_, err = s.Add(Preset{Name: "News", Freq: "91.7", Prog: "3"})
	require.NoError(t, err)

	out, err := s.Export()
	require.NoError(t, err)

	other := newStore(t)
	n, err := other.Import(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, s.List(), other.List(), "export then import must preserve the ordered records")
}

func TestImportSkipsRecordsWithoutFrequency(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	n, err := s.Import([]byte(`[{"name":"ok","freq":"99.5"},{"name":"broken"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Import([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestOpenRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	t.Parallel()

	p := Preset{Name: "Jazz", Freq: "90.1", Prog: "2"}
	assert.Equal(t, "Jazz — 90.1 MHz (P2)", p.Label())
}
