package rageval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	t.Parallel()

	table := NewTable(ColumnQuestion, ColumnGroundTruth)
	require.NoError(t, table.Append(map[string]string{ColumnQuestion: "q1", ColumnGroundTruth: "g1"}))
	require.NoError(t, table.Append(map[string]string{ColumnQuestion: "q2"}))

	assert.ErrorIs(t, table.Append(map[string]string{"unknown": "x"}), ErrMissingColumn)

	assert.Equal(t, 2, table.Len())
	assert.True(t, table.HasColumn(ColumnQuestion))
	assert.False(t, table.HasColumn(ColumnAnswer))

	assert.Equal(t, "q1", table.Get(0, ColumnQuestion))
	assert.Equal(t, "", table.Get(1, ColumnGroundTruth))
	assert.Equal(t, "", table.Get(0, ColumnAnswer))
	assert.Equal(t, "", table.Get(5, ColumnQuestion))

	// Setting an unknown column adds it
	require.NoError(t, table.Set(1, ColumnAnswer, "a2"))
	assert.Equal(t, []string{ColumnQuestion, ColumnGroundTruth, ColumnAnswer}, table.Header)
	assert.Equal(t, [][]string{{"q1", "g1", ""}, {"q2", "", "a2"}}, table.Records)

	assert.Error(t, table.Set(2, ColumnAnswer, "out of range"))

	table.AddColumn(ColumnAnswer)
	assert.Len(t, table.Header, 3)
}

func TestTable_ShortRecords(t *testing.T) {
	t.Parallel()

	table := &Table{
		Header:  []string{"a", "b", "c"},
		Records: [][]string{{"1"}},
	}

	assert.Equal(t, "", table.Get(0, "c"))
	require.NoError(t, table.Set(0, "c", "3"))
	assert.Equal(t, []string{"1", "", "3"}, table.Records[0])
}
