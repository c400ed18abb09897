package lookup

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/shared/testutil"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

func TestNormalize(t *testing.T) {
	table := New(
		map[string]string{"CA": "California", "GU": "Guam"},
		map[string]string{"California": "CA"},
	)

	tests := []struct {
		name       string
		raw        string
		wantLong   string
		wantAbbrev string
		wantKind   apierrors.LookupKind
	}{
		{name: "resolves both steps", raw: "CA", wantLong: "California", wantAbbrev: "CA"},
		{name: "unknown short form", raw: "ZZ", wantKind: apierrors.UnknownRegionShortForm},
		{name: "unknown long form", raw: "GU", wantKind: apierrors.UnknownRegionLongForm},
		{name: "match is case sensitive", raw: "ca", wantKind: apierrors.UnknownRegionShortForm},
		{name: "match does not trim", raw: "CA ", wantKind: apierrors.UnknownRegionShortForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			long, abbrev, err := table.Normalize(tt.raw)
			if tt.wantKind != "" {
				var lerr *apierrors.LookupError
				require.ErrorAs(t, err, &lerr)
				assert.Equal(t, tt.wantKind, lerr.Kind)
				assert.True(t, errors.Is(err, &apierrors.LookupError{Kind: tt.wantKind}))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLong, long)
			assert.Equal(t, tt.wantAbbrev, abbrev)
		})
	}
}

func TestNormalizeRows(t *testing.T) {
	table := New(map[string]string{"CA": "California"}, map[string]string{"California": "CA"})

	rows, err := table.NormalizeRows([]domain.RawResultRow{{Region: "CA", ShareA: 60, ShareB: 38}})
	require.NoError(t, err)
	assert.Equal(t, []domain.ElectionRow{{Name: "California", Abbreviation: "CA", ShareA: 60, ShareB: 38}}, rows)

	_, err = table.NormalizeRows([]domain.RawResultRow{{Region: "CA"}, {Region: "TX"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.True(t, errors.Is(err, &apierrors.LookupError{Kind: apierrors.UnknownRegionShortForm, Key: "TX"}))
}

func TestNewCopiesInput(t *testing.T) {
	short := map[string]string{"CA": "California"}
	table := New(short, map[string]string{"California": "CA"})
	short["CA"] = "Nowhere"

	long, _, err := table.Normalize("CA")
	require.NoError(t, err)
	assert.Equal(t, "California", long)
}

func TestLoad(t *testing.T) {
	files := testutil.WriteSourceFiles(t, t.TempDir())

	table, err := Load(files.ShortToLong, files.LongToAbbrev)
	require.NoError(t, err)

	shortN, longN := table.Len()
	assert.Equal(t, 6, shortN)
	assert.Equal(t, 7, longN)

	long, abbrev, err := table.Normalize("NY")
	require.NoError(t, err)
	assert.Equal(t, "New York", long)
	assert.Equal(t, "NY", abbrev)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	empty := filepath.Join(dir, "empty.json")
	testutil.WriteFile(t, bad, `["CA"]`)
	testutil.WriteFile(t, empty, `{}`)

	for _, path := range []string{filepath.Join(dir, "absent.json"), bad, empty} {
		_, err := Load(path, path)
		var eerr *apierrors.ExtractionError
		require.ErrorAs(t, err, &eerr, path)
		assert.Equal(t, path, eerr.Source)
	}
}
