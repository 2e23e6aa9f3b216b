package results

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a CSV file loaded with its header; cells stay strings until asked for.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func ReadTable(fileName string) (*Table, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", fileName)
	}

	return NewTable(records[0], records[1:]), nil
}

func NewTable(header []string, rows [][]string) *Table {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return &Table{Header: header, Rows: rows, index: index}
}

func (t *Table) Has(column string) bool {
	_, found := t.index[column]
	return found
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// String returns the cell of a row, or an error if the column does not exist.
func (t *Table) String(row int, column string) (string, error) {
	i, found := t.index[column]
	if !found {
		return "", fmt.Errorf("missing column %q", column)
	}
	if i >= len(t.Rows[row]) {
		return "", nil
	}
	return t.Rows[row][i], nil
}

// Float parses a numeric cell; empty or malformed cells are NaN.
func (t *Table) Float(row int, column string) (float64, error) {
	cell, err := t.String(row, column)
	if err != nil {
		return math.NaN(), err
	}
	return ParseCell(cell), nil
}

func (t *Table) Floats(column string) ([]float64, error) {
	if !t.Has(column) {
		return nil, fmt.Errorf("missing column %q", column)
	}
	values := make([]float64, len(t.Rows))
	for row := range t.Rows {
		values[row], _ = t.Float(row, column)
	}
	return values, nil
}

// Filter returns a table with the rows for which keep is true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := [][]string{}
	for i, row := range t.Rows {
		if keep(i) {
			rows = append(rows, row)
		}
	}
	return NewTable(t.Header, rows)
}

// WithColumn returns a copy of the table with a constant column appended.
func (t *Table) WithColumn(column string, value string) *Table {
	header := append(append([]string{}, t.Header...), column)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		padded := make([]string, len(t.Header), len(t.Header)+1)
		copy(padded, row)
		rows[i] = append(padded, value)
	}
	return NewTable(header, rows)
}

// Concat stacks tables by column name; columns missing in a table become empty cells.
func Concat(tables ...*Table) *Table {
	header := []string{}
	seen := map[string]bool{}
	for _, t := range tables {
		for _, name := range t.Header {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}

	rows := [][]string{}
	for _, t := range tables {
		for i := range t.Rows {
			row := make([]string, len(header))
			for j, name := range header {
				if t.Has(name) {
					row[j], _ = t.String(i, name)
				}
			}
			rows = append(rows, row)
		}
	}
	return NewTable(header, rows)
}

func ParseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
