package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowprose/graphein/core/config"
)

func writeCorpus(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSnapshotCSV(t *testing.T) {
	path := writeCorpus(t, "corpus.csv",
		"token,line_id,folio_id,section,regime\n"+
			"qokaiin,f1.l1,f1,herbal,A\n"+
			"chedy,f1.l1,f1,herbal,A\n"+
			"otaiin,f1.l2,f1,herbal,A\n")

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Records, 3)
	assert.Len(t, snap.Version, 64)

	assert.Equal(t, Record{
		Token: "qokaiin", LineID: "f1.l1", FolioID: "f1",
		Section: "herbal", Regime: "A",
	}, snap.Records[0])
	assert.Equal(t, "otaiin", snap.Records[2].Token)
}

func TestLoadSnapshotCSVNoHeader(t *testing.T) {
	path := writeCorpus(t, "corpus.csv", "qok,f1.l1,f1\nchy,f1.l1,f1\n")

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "qok", snap.Records[0].Token)
	assert.Empty(t, snap.Records[0].Section)
	assert.Empty(t, snap.Records[0].Regime)
}

func TestLoadSnapshotJSON(t *testing.T) {
	path := writeCorpus(t, "corpus.json",
		`[{"token":"qokaiin","line_id":"f1.l1","folio_id":"f1","section":"herbal","regime":"A"},
		  {"token":"chedy","line_id":"f1.l1","folio_id":"f1","section":"herbal","regime":"A"}]`)

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "chedy", snap.Records[1].Token)
	assert.Equal(t, "A", snap.Records[1].Regime)
}

func TestLoadSnapshotVersionTracksContent(t *testing.T) {
	a := writeCorpus(t, "a.csv", "qok,f1.l1,f1\n")
	b := writeCorpus(t, "b.csv", "qok,f1.l1,f1\n")
	c := writeCorpus(t, "c.csv", "qok,f1.l2,f1\n")

	sa, err := LoadSnapshot(a)
	require.NoError(t, err)
	sb, err := LoadSnapshot(b)
	require.NoError(t, err)
	sc, err := LoadSnapshot(c)
	require.NoError(t, err)

	assert.Equal(t, sa.Version, sb.Version, "identical content must hash identically")
	assert.NotEqual(t, sa.Version, sc.Version, "distinct content must hash distinctly")
}

func TestLoadSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want error
	}{
		{"empty csv", "e.csv", "", ErrEmptyCorpus},
		{"header only", "h.csv", "token,line_id,folio_id\n", ErrEmptyCorpus},
		{"too few fields", "f.csv", "qok,f1.l1\n", ErrMalformedRecord},
		{"blank token", "b.csv", " ,f1.l1,f1\n", ErrMissingTokenField},
		{"unknown extension", "u.txt", "qok,f1.l1,f1\n", ErrUnknownFormat},
		{"broken json", "j.json", `[{"token":`, ErrMalformedRecord},
		{"json blank token", "t.json", `[{"token":"","line_id":"l","folio_id":"f"}]`, ErrMissingTokenField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCorpus(t, tt.file, tt.body)
			_, err := LoadSnapshot(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestDecomposeAllPositions(t *testing.T) {
	d, err := NewDecomposer(NewGrammar(config.DefaultConfig().Grammar))
	require.NoError(t, err)

	snap := &Snapshot{
		Version: "v1",
		Records: []Record{
			{Token: "qokaiin", LineID: "f1.l1", FolioID: "f1", Section: "herbal", Regime: "A"},
			{Token: "chedy", LineID: "f1.l1", FolioID: "f1", Section: "herbal", Regime: "A"},
			{Token: "otaiin", LineID: "f1.l1", FolioID: "f1", Section: "herbal", Regime: "A"},
			{Token: "daiin", LineID: "f1.l2", FolioID: "f1", Section: "herbal", Regime: "A"},
		},
	}
	tokens := DecomposeAll(d, snap)
	require.Len(t, tokens, 4)

	assert.Equal(t, []int{0, 1, 2, 0}, []int{tokens[0].Pos, tokens[1].Pos, tokens[2].Pos, tokens[3].Pos})
	assert.Equal(t, "f1.l2", tokens[3].LineID)
	assert.Equal(t, "herbal", tokens[0].Section)
	for _, tok := range tokens {
		assert.False(t, tok.Unparseable, tok.Raw)
		assert.Equal(t, tok.Raw, tok.Recompose())
	}
}
