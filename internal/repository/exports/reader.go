package exports

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Row is one spreadsheet record keyed by its column header.
type Row map[string]string

// String returns the trimmed cell value for the named column.
func (r Row) String(column string) string {
	return strings.TrimSpace(r[column])
}

// Float parses the named cell as a number, tolerating currency symbols and
// thousands separators. Empty or unparseable cells yield 0.
func (r Row) Float(column string) float64 {
	raw := strings.NewReplacer("$", "", ",", "").Replace(r.String(column))
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}

// Int parses the named cell as an integer, truncating fractional exports the
// register occasionally produces.
func (r Row) Int(column string) int {
	return int(r.Float(column))
}

// Percent parses the named cell as a fraction: "45%" and "45" both become
// 0.45, while a bare fraction like "0.45" is returned as-is.
func (r Row) Percent(column string) float64 {
	raw := r.String(column)
	if raw == "" {
		return 0
	}
	if strings.HasSuffix(raw, "%") {
		return r.Float(column) / 100
	}
	value := r.Float(column)
	if value > 1 {
		return value / 100
	}
	return value
}

// Reader loads point-of-sale .xlsx exports into header-keyed rows.
type Reader struct {
	logger *zap.Logger
}

// NewReader wires a new export reader.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// ReadRows reads the first sheet of the workbook at path. The first row is
// treated as the header; fully empty rows are dropped.
func (r *Reader) ReadRows(path string) ([]Row, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			r.logger.Warn("close export file", zap.Error(cerr))
		}
	}()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export %s has no sheets", path)
	}

	raw, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := make([]string, len(raw[0]))
	for i, cell := range raw[0] {
		header[i] = strings.TrimSpace(cell)
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(Row, len(header))
		empty := true
		for i, cell := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = cell
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	r.logger.Debug("read export", zap.String("file", path), zap.Int("rows", len(rows)))
	return rows, nil
}
