package clients

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("named headers any case", func(t *testing.T) {
		csvData := "custref,PRIMARYCLIENTCODE\n470583746,ACME01\n12345,BETA02\n"

		m, stats, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.RowsRead)
		assert.Equal(t, 2, stats.PairsMapped)
		assert.Equal(t, 2, m.Len())
		assert.Equal(t, "ACME01", m.Resolve("470583746"))
		assert.Equal(t, "BETA02", m.Resolve("12345"))
	})

	t.Run("named headers win over position", func(t *testing.T) {
		csvData := "Notes,PrimaryClientCode,CustRef\nignored,ACME01,470583746\n"

		m, _, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, "ACME01", m.Resolve("470583746"))
		assert.Equal(t, "", m.Resolve("ignored"))
	})

	t.Run("falls back to first two columns", func(t *testing.T) {
		csvData := "Reference,Code\n470583746,ACME01\n"

		m, stats, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.PairsMapped)
		assert.Equal(t, "ACME01", m.Resolve("470583746"))
	})

	t.Run("cells are soft cleaned", func(t *testing.T) {
		csvData := "CustRef,PrimaryClientCode\n  4705  83746 , ACME01 \n"

		m, _, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, "ACME01", m.Resolve("4705 83746"))
	})

	t.Run("rows missing either side still count as read", func(t *testing.T) {
		csvData := "CustRef,PrimaryClientCode\n470583746,ACME01\n,ORPHAN\n99999,\n"

		m, stats, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.RowsRead)
		assert.Equal(t, 1, stats.PairsMapped)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("duplicate reference keeps the last code", func(t *testing.T) {
		csvData := "CustRef,PrimaryClientCode\n470583746,OLD01\n470583746,NEW02\n"

		m, stats, err := Load(strings.NewReader(csvData))
		require.NoError(t, err)
		assert.Equal(t, 2, stats.PairsMapped)
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, "NEW02", m.Resolve("470583746"))
	})

	t.Run("single column is an error", func(t *testing.T) {
		_, _, err := Load(strings.NewReader("CustRef\n470583746\n"))
		require.ErrorIs(t, err, ErrTooFewColumns)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, _, err := Load(strings.NewReader(""))
		require.ErrorIs(t, err, ErrTooFewColumns)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.csv")
	csvData := "CustRef,PrimaryClientCode\n470583746,ACME01\n"
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	m, stats, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RowsRead)
	assert.Equal(t, "ACME01", m.Resolve("470583746"))

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	m := NewMap()
	m.Add("470583746", "ACME01")
	m.Add("Gelfand NY", "GELF01")
	m.Add("12345", "BETA02")

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"exact match", "470583746", "ACME01"},
		{"case insensitive match", "GELFAND ny", "GELF01"},
		{"key contained inside reference", "PO 470583746 / urgent", "ACME01"},
		{"whitespace folded before lookup", "  470583746  ", "ACME01"},
		{"unknown reference", "999999999", ""},
		{"empty reference", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(tt.ref))
		})
	}

	t.Run("every key round-trips", func(t *testing.T) {
		for _, e := range m.Entries() {
			assert.Equal(t, e.Code, m.Resolve(e.Reference), "key %q", e.Reference)
		}
	})

	t.Run("substring ties go to the entry loaded first", func(t *testing.T) {
		tie := NewMap()
		tie.Add("123", "FIRST")
		tie.Add("12345", "SECOND")
		assert.Equal(t, "FIRST", tie.Resolve("xx1234567yy"))
	})

	t.Run("nil map resolves empty", func(t *testing.T) {
		var nilMap *Map
		assert.Equal(t, "", nilMap.Resolve("470583746"))
	})
}

func TestSuggest(t *testing.T) {
	m := NewMap()
	m.Add("470583746", "ACME01")
	m.Add("470583999", "ACME02")
	m.Add("Gelfand NY", "GELF01")

	t.Run("close digits rank first", func(t *testing.T) {
		got := m.Suggest("470583747", 2)
		require.Len(t, got, 2)
		assert.Equal(t, "470583746", got[0].Reference)
		assert.Equal(t, "ACME01", got[0].Code)
		assert.Equal(t, 1, got[0].Distance)
		assert.Greater(t, got[0].Score, got[1].Score)
	})

	t.Run("exact key scores a hundred", func(t *testing.T) {
		got := m.Suggest("470583746", 1)
		require.Len(t, got, 1)
		assert.Equal(t, 100, got[0].Score)
		assert.Equal(t, 0, got[0].Distance)
	})

	t.Run("blank reference suggests nothing", func(t *testing.T) {
		assert.Nil(t, m.Suggest("   ", 5))
	})

	t.Run("empty map suggests nothing", func(t *testing.T) {
		assert.Nil(t, NewMap().Suggest("470583746", 5))
	})
}

func TestSearchIndex(t *testing.T) {
	m := NewMap()
	m.Add("470583746", "ACME01")
	m.Add("Gelfand NY", "GELF01")
	m.Add("Lightning Freight", "LIGH01")

	si, err := NewSearchIndex()
	require.NoError(t, err)
	defer si.Close()

	require.NoError(t, si.IndexMap(m))

	count, err := si.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	t.Run("finds a numeric reference", func(t *testing.T) {
		got, err := si.Search("470583746", 5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "470583746", got[0].Reference)
		assert.Equal(t, "ACME01", got[0].Code)
	})

	t.Run("tolerates a typo", func(t *testing.T) {
		got, err := si.Search("gelfend", 5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "GELF01", got[0].Code)
	})

	t.Run("prefix search autocompletes", func(t *testing.T) {
		got, err := si.SearchPrefix("light", 5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "LIGH01", got[0].Code)
	})

	t.Run("no hits for an unknown term", func(t *testing.T) {
		got, err := si.Search("zzzzzzzz", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
