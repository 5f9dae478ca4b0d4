// Package sheet reads clip requests from a spreadsheet (.xlsx or .csv).
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/user/clipcutter/clip"
	"github.com/xuri/excelize/v2"
)

// RowError reports a data row that could not be turned into a request.
// Row is 1-based, as shown by spreadsheet applications.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ErrNoColumns is returned when the header row has no recognisable time or label column.
var ErrNoColumns = errors.New("header row needs a time column (起始时间/开始时间/time or start+end) and a label column (问题/描述/标题/片段名称/label)")

// Result holds the parsed requests and the rows that were skipped.
type Result struct {
	Requests []clip.Request
	Problems []*RowError
}

// Load reads path and returns one request per usable row. Output files are
// placed in outDir and named after the sanitized label.
func Load(path, outDir string) (*Result, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	return Parse(rows, outDir)
}

// ReadRows returns the cells of the active worksheet (xlsx) or of the file (csv).
func ReadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	}
	return nil, fmt.Errorf("unsupported sheet type %q (want .xlsx or .csv)", filepath.Ext(path))
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

type columns struct {
	rangeCol, startCol, endCol, labelCol int
}

var (
	rangeHeaders = []string{"起始时间", "开始时间", "时间段"}
	labelHeaders = []string{"问题", "描述", "标题", "片段名称"}
)

// findColumns inspects the header row. Column indexes are -1 when absent.
func findColumns(header []string) (columns, error) {
	c := columns{rangeCol: -1, startCol: -1, endCol: -1, labelCol: -1}
	for i, cell := range header {
		h := strings.TrimSpace(cell)
		lower := strings.ToLower(h)
		switch {
		case containsAny(h, rangeHeaders) || lower == "time" || lower == "range":
			if c.rangeCol < 0 {
				c.rangeCol = i
			}
		case containsAny(h, labelHeaders) || lower == "label" || lower == "description" || lower == "title" || lower == "name":
			if c.labelCol < 0 {
				c.labelCol = i
			}
		case lower == "start" || h == "开始" || h == "起":
			c.startCol = i
		case lower == "end" || h == "结束" || h == "止":
			c.endCol = i
		}
	}
	if c.labelCol < 0 || (c.rangeCol < 0 && (c.startCol < 0 || c.endCol < 0)) {
		return c, ErrNoColumns
	}
	return c, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Parse converts raw rows, header first, into requests.
func Parse(rows [][]string, outDir string) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}
	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}

	res := &Result{}
	paths := clip.NewPathSet()
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		label := strings.TrimSpace(cell(row, cols.labelCol))
		if label == "" {
			res.Problems = append(res.Problems, &RowError{Row: rowNum, Err: errors.New("empty label")})
			continue
		}

		var start, end time.Time
		var ok bool
		if cols.rangeCol >= 0 {
			start, end, ok = ParseRange(cell(row, cols.rangeCol))
		}
		if !ok && cols.startCol >= 0 && cols.endCol >= 0 {
			var okStart, okEnd bool
			start, okStart = ParseDateTime(cell(row, cols.startCol))
			end, okEnd = ParseDateTime(cell(row, cols.endCol))
			ok = okStart && okEnd
		}
		if !ok {
			res.Problems = append(res.Problems, &RowError{Row: rowNum, Err: fmt.Errorf("no start and end time for %q", label)})
			continue
		}

		req := clip.Request{
			Start:      start,
			End:        end,
			Label:      label,
			OutputPath: paths.Unique(clip.OutputPath(outDir, label)),
		}
		if err := req.Validate(); err != nil {
			res.Problems = append(res.Problems, &RowError{Row: rowNum, Err: err})
			continue
		}
		res.Requests = append(res.Requests, req)
	}
	return res, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateTimePattern = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})[\sT_:]+(\d{1,2}):(\d{2}):(\d{2})`)

// ParseRange extracts the first two datetimes from a cell such as
// "起 2026-01-15 10:45:02 止 2026-01-15 11:30:00".
func ParseRange(s string) (time.Time, time.Time, bool) {
	matches := dateTimePattern.FindAllStringSubmatch(s, 2)
	if len(matches) < 2 {
		return time.Time{}, time.Time{}, false
	}
	start, ok1 := fromMatch(matches[0])
	end, ok2 := fromMatch(matches[1])
	return start, end, ok1 && ok2
}

// ParseDateTime reads one datetime, either as text or as an Excel serial
// date number.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := dateTimePattern.FindStringSubmatch(s); m != nil {
		return fromMatch(m)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		t = t.Round(time.Second)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), true
	}
	return time.Time{}, false
}

func fromMatch(m []string) (time.Time, bool) {
	n := make([]int, 6)
	for i := range n {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	if n[1] < 1 || n[1] > 12 || n[2] < 1 || n[3] > 23 || n[4] > 59 || n[5] > 59 {
		return time.Time{}, false
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.Local)
	if t.Day() != n[2] {
		return time.Time{}, false
	}
	return t, true
}
