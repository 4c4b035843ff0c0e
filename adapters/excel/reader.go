package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

// DataReader reads per-individual p-values from Excel and CSV study files.
// The expected layout is one header row and one row per participant.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Columns lists the column headers available in the file.
func (r *DataReader) Columns() ([]string, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return headers, nil
}

// ReadPValues reads the named column as per-individual p-values. Empty cells
// are skipped (missing participants); non-numeric cells are an error.
func (r *DataReader) ReadPValues(column string) (prevalence.ObservedData, error) {
	rows, err := r.readRows()
	if err != nil {
		return prevalence.ObservedData{}, err
	}

	colIdx := -1
	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), column) {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return prevalence.ObservedData{}, errors.InvalidInput(fmt.Sprintf("column %q not found in %s", column, r.filePath))
	}

	var pvalues []float64
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if colIdx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[colIdx])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return prevalence.ObservedData{}, errors.InvalidInput(fmt.Sprintf("row %d, column %q: not a number: %q", i+1, column, cell))
		}
		pvalues = append(pvalues, v)
	}

	return prevalence.ObservedFromPValues(pvalues)
}

// readRows loads the raw string rows, header first.
func (r *DataReader) readRows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("study file must have at least a header row and one data row")
	}
	return rows, nil
}

// readExcelRows reads the first sheet of an Excel workbook.
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheets[0])
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return rows, nil
}
