package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPValues_CSV(t *testing.T) {
	path := writeCSV(t, "participant,p_value\ns01,0.001\ns02,0.20\ns03,0.049\ns04,0.95\n")

	reader := NewDataReader(path)
	observed, err := reader.ReadPValues("p_value")
	require.NoError(t, err)

	k, n, err := observed.Counts(0.05)
	require.NoError(t, err)
	assert.Equal(t, 2, k)
	assert.Equal(t, 4, n)
}

func TestReadPValues_SkipsEmptyCells(t *testing.T) {
	path := writeCSV(t, "participant,p_value\ns01,0.01\ns02,\ns03,0.30\n")

	observed, err := NewDataReader(path).ReadPValues("p_value")
	require.NoError(t, err)

	_, n, err := observed.Counts(0.05)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReadPValues_ColumnLookupIsCaseInsensitive(t *testing.T) {
	path := writeCSV(t, "participant,P_Value\ns01,0.01\ns02,0.30\n")

	_, err := NewDataReader(path).ReadPValues("p_value")
	require.NoError(t, err)
}

func TestReadPValues_MissingColumn(t *testing.T) {
	path := writeCSV(t, "participant,p_value\ns01,0.01\n")

	_, err := NewDataReader(path).ReadPValues("pval")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadPValues_NonNumericCell(t *testing.T) {
	path := writeCSV(t, "participant,p_value\ns01,0.01\ns02,n/a\n")

	_, err := NewDataReader(path).ReadPValues("p_value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestReadPValues_OutOfRangeValueRejected(t *testing.T) {
	path := writeCSV(t, "participant,p_value\ns01,0.01\ns02,1.2\n")

	_, err := NewDataReader(path).ReadPValues("p_value")
	require.Error(t, err)
}

func TestColumns(t *testing.T) {
	path := writeCSV(t, "participant,p_value,effect\ns01,0.01,0.3\n")

	cols, err := NewDataReader(path).Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"participant", "p_value", "effect"}, cols)
}

func TestReadPValues_HeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, "participant,p_value\n")

	_, err := NewDataReader(path).ReadPValues("p_value")
	require.Error(t, err)
}

func TestReadPValues_MissingFile(t *testing.T) {
	_, err := NewDataReader("/nonexistent/study.csv").ReadPValues("p_value")
	require.Error(t, err)
}
