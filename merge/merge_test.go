package merge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/table"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 14, 7, 9, 500, time.FixedZone("CET", 3600))
}

func sortedMaster() *table.CSV {
	return table.NewCSV([][]string{
		{"key", "en-us", "de-de", "hw"},
		{"BBB", "EN-BBB", "DE-BBB", "x"},
		{"DDD", "EN-DDD", "DE-DDD", "x"},
		{"FFF", "EN-FFF", "DE-FFF", "x"},
	})
}

func keys(t table.Store) []string {
	var out []string
	for row := 1; row < t.RowCount(); row++ {
		out = append(out, t.Value(row, 0))
	}
	return out
}

func TestUpdateInsertsSorted(t *testing.T) {
	tests := []struct {
		key  string
		want []string
		row  int
	}{
		{"AAA", []string{"AAA", "BBB", "DDD", "FFF"}, 1},
		{"CCC", []string{"BBB", "CCC", "DDD", "FFF"}, 2},
		{"EEE", []string{"BBB", "DDD", "EEE", "FFF"}, 3},
		{"ZZZ", []string{"BBB", "DDD", "FFF", "ZZZ"}, 4},
		{"ccc", []string{"BBB", "ccc", "DDD", "FFF"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			master := sortedMaster()
			res, err := Update(master, []extract.Pair{{Key: tt.key, Value: tt.key}}, "en-us", "hw", Options{})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Inserted)
			assert.Zero(t, res.Updated)
			assert.Equal(t, tt.want, keys(master))
			assert.Equal(t, []string{tt.key, tt.key, "", "x"}, master.Grid()[tt.row])
		})
	}
}

func TestUpdateKeepsSortOrder(t *testing.T) {
	master := sortedMaster()
	pairs := []extract.Pair{
		{Key: "zeta", Value: "z"},
		{Key: "Alpha", Value: "a"},
		{Key: "delta", Value: "d"},
		{Key: "CCC", Value: "c"},
		{Key: "bbb2", Value: "b"},
	}
	_, err := Update(master, pairs, "de-de", "hw", Options{})
	require.NoError(t, err)

	got := keys(master)
	require.Len(t, got, 8)
	for i := 1; i < len(got); i++ {
		assert.False(t, schema.KeyLess(got[i], got[i-1]), "keys not sorted: %v", got)
	}
}

func TestUpdateEmptyStore(t *testing.T) {
	master := table.NewCSV(nil)
	res, err := Update(master, []extract.Pair{{Key: "A", Value: "a"}}, "en-us", "hw", Options{UseComment: true})
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, master.RowCount())
	assert.Zero(t, master.ColCount())
}

func TestUpdateHeaderOnly(t *testing.T) {
	master := table.NewCSV([][]string{{"key", "en-us", "hw"}})
	_, err := Update(master, []extract.Pair{{Key: "A", Value: "a"}}, "en-us", "hw", Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"key", "en-us", "hw"}, {"A", "a", "x"}}, master.Grid())
}

func TestUpdateUnsortedAppends(t *testing.T) {
	master := table.NewCSV([][]string{
		{"key", "en-us", "hw"},
		{"BBB2", "b2", "x"},
		{"BBB1", "b1", "x"},
	})
	_, err := Update(master, []extract.Pair{{Key: "BBB3", Value: "b3"}}, "en-us", "hw", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB2", "BBB1", "BBB3"}, keys(master))
}

func TestUpdateMissingKeyColumn(t *testing.T) {
	master := table.NewCSV([][]string{{"id", "en-us"}})
	_, err := Update(master, []extract.Pair{{Key: "A", Value: "a"}}, "en-us", "hw", Options{})
	assert.ErrorIs(t, err, schema.ErrMissingKey)
}

func TestUpdateExistingRow(t *testing.T) {
	master := table.NewCSV([][]string{
		{"key", "en-us", "de-de", "hw", "web"},
		{"BBB", "en", "", "x", ""},
	})

	res, err := Update(master, []extract.Pair{{Key: "BBB", Value: "other"}}, "en-us", "hw", Options{})
	require.NoError(t, err)
	assert.Equal(t, "en", master.Value(1, 1), "existing value overwritten")
	assert.Equal(t, 2, master.RowCount())
	assert.Equal(t, []Conflict{{Key: "BBB", Locale: "en-us", Existing: "en", Incoming: "other"}}, res.Conflicts)
	assert.Zero(t, res.Updated)

	res, err = Update(master, []extract.Pair{{Key: "BBB", Value: "de"}}, "DE-DE", "web", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB", "en", "de", "x", "x"}, master.Grid()[1])
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Conflicts)
}

func TestUpdateSameValueIsNoConflict(t *testing.T) {
	master := sortedMaster()
	res, err := Update(master, []extract.Pair{{Key: "DDD", Value: "EN-DDD"}}, "en-us", "hw", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Inserted)
}

func TestUpdateTimestamp(t *testing.T) {
	master := table.NewCSV([][]string{
		{"key", "en-us", "hw", "timestamp"},
		{"AAA", "a", "x", "old"},
		{"BBB", "", "x", "old"},
	})
	pairs := []extract.Pair{
		{Key: "AAA", Value: "a"},
		{Key: "BBB", Value: "b"},
		{Key: "CCC", Value: "c"},
	}

	_, err := Update(master, pairs, "en-us", "hw", Options{UseTimestamp: true, Now: fixedClock})
	require.NoError(t, err)

	const stamp = "2024-03-05T13:07:09"
	assert.Equal(t, "old", master.Value(1, 3), "unchanged row stamped")
	assert.Equal(t, stamp, master.Value(2, 3), "changed row")
	assert.Equal(t, stamp, master.Value(3, 3), "new row")
}

func TestUpdateMigratesOptionalColumns(t *testing.T) {
	master := table.NewCSV([][]string{
		{"key", "en-us", "hw"},
		{"BBB", "b", "x"},
	})

	opts := Options{UseComment: true, UseTimestamp: true, Now: fixedClock}
	_, err := Update(master, []extract.Pair{{Key: "AAA", Value: "a"}}, "en-us", "hw", opts)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"key", "en-us", "hw", "comment", "timestamp"},
		{"AAA", "a", "x", "", "2024-03-05T13:07:09"},
		{"BBB", "b", "x", "", ""},
	}, master.Grid())

	// A second run must not add the columns again.
	_, err = Update(master, nil, "en-us", "hw", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "en-us", "hw", "comment", "timestamp"}, master.Grid()[0])
}

func TestUpdateUnknownColumns(t *testing.T) {
	master := table.NewCSV([][]string{{"key", "en-us", "hw"}})
	_, err := Update(master, []extract.Pair{{Key: "A", Value: "a"}}, "fr-fr", "other", Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"key", "en-us", "hw"}, {"A", "", ""}}, master.Grid())
}

func TestUpdateWorksOnSheet(t *testing.T) {
	master := table.NewSheet(sortedMaster().Grid(), "hw")
	defer master.Close()

	_, err := Update(master, []extract.Pair{{Key: "CCC", Value: "CCC"}}, "en-us", "hw", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CCC", "CCC", "", "x"}, master.Grid()[2])
}

func TestUpdateOnSheetStopsAfterRejectedValue(t *testing.T) {
	master := table.NewSheet(sortedMaster().Grid(), "hw")
	defer master.Close()

	pairs := []extract.Pair{
		{Key: "CCC", Value: strings.Repeat("a", 40000)},
		{Key: "EEE", Value: "e"},
	}
	_, err := Update(master, pairs, "en-us", "hw", Options{})
	assert.ErrorIs(t, err, table.ErrCellTooLong)
	assert.Equal(t, []string{"BBB", "CCC", "DDD", "FFF"}, keys(master))
	assert.Equal(t, "", master.Value(2, 1))
}

func TestInsertRow(t *testing.T) {
	master := sortedMaster()
	for key, want := range map[string]int{"A": 1, "BBB": 1, "BBC": 2, "fff": 3, "Z": 4} {
		assert.Equal(t, want, InsertRow(master, 0, key), key)
	}
}

func TestFindRow(t *testing.T) {
	master := sortedMaster()
	assert.Equal(t, 2, FindRow(master, 0, "DDD"))
	assert.Equal(t, -1, FindRow(master, 0, "ddd"), "FindRow is case-sensitive")
	assert.Equal(t, -1, FindRow(master, 0, "key"), "header row matched")
}
