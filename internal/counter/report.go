package counter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

// FileRow is one row of a by-file external report.
type FileRow struct {
	Language string
	Path     string
	Blank    int
	Comment  int
	Code     int
}

// columns holds the index of each known column; -1 means absent.
type columns struct {
	language, filename, files, blank, comment, code int
}

var (
	// Language,Files,Blank,Comment,Code
	summaryColumns = columns{language: 0, filename: -1, files: 1, blank: 2, comment: 3, code: 4}
	// Language,Filename,Blank,Comment,Code
	byFileColumns = columns{language: 0, filename: 1, files: -1, blank: 2, comment: 3, code: 4}
)

// Parse returns the code lines per language of an external report, keeping only
// languages allowed by filter. SUM rows are never counted.
func Parse(raw []byte, filter language.Filter) (map[string]int, error) {
	rows, err := ParseReport(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range FilterRows(rows, filter) {
		out[row.Language] += row.Code
	}
	return out, nil
}

// FilterRows keeps the rows whose language, or a language it is an alias of,
// passes filter.
func FilterRows(rows []domain.LanguageRow, filter language.Filter) []domain.LanguageRow {
	var out []domain.LanguageRow
	for _, row := range rows {
		if filter.Allows(row.Language) {
			out = append(out, row)
		}
	}
	return out
}

// ParseReport parses the per-language summary of an external report. It accepts
// delimited (CSV) output, JSON output and the fixed-width text table, and stops
// before any SUM row. Empty or malformed output wraps domain.ErrCountingBackend.
func ParseReport(raw []byte) ([]domain.LanguageRow, error) {
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty report", domain.ErrCountingBackend)
	}

	var (
		rows []domain.LanguageRow
		err  error
	)
	switch {
	case raw[0] == '{':
		rows, err = parseJSON(raw)
	case !isTable(raw) && isDelimited(raw):
		err = readCSV(raw, summaryColumns, func(rec []string, cols columns) error {
			row, err := languageRow(rec, cols)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	default:
		rows, err = parseTable(raw)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no language rows", domain.ErrCountingBackend)
	}
	return rows, nil
}

// ParseByFile parses a delimited by-file report.
func ParseByFile(raw []byte) ([]FileRow, error) {
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty report", domain.ErrCountingBackend)
	}
	var rows []FileRow
	err := readCSV(raw, byFileColumns, func(rec []string, cols columns) error {
		if cols.filename < 0 {
			return fmt.Errorf("%w: by-file report has no filename column", domain.ErrCountingBackend)
		}
		lang, err := cell(rec, cols.language)
		if err != nil {
			return err
		}
		name, err := cell(rec, cols.filename)
		if err != nil {
			return err
		}
		row := FileRow{Language: lang, Path: name}
		if row.Blank, err = intCell(rec, cols.blank); err != nil {
			return err
		}
		if row.Comment, err = intCell(rec, cols.comment); err != nil {
			return err
		}
		if row.Code, err = intCell(rec, cols.code); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no file rows", domain.ErrCountingBackend)
	}
	return rows, nil
}

func isDelimited(raw []byte) bool {
	return bytes.Contains(raw, []byte(","))
}

// isTable reports whether raw has the whitespace-separated header of the text table.
func isTable(raw []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.EqualFold(fields[0], "language") && !strings.Contains(line, ",") {
			return true
		}
	}
	return false
}

// readCSV calls visit for every data record, switching columns when a header
// record is seen and stopping at the first SUM record.
func readCSV(raw []byte, cols columns, visit func(rec []string, cols columns) error) error {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCountingBackend, err)
		}
		if isBlank(rec) {
			continue
		}
		if header, ok := headerColumns(rec); ok {
			cols = header
			continue
		}
		if isSum(rec, cols) {
			return nil
		}
		if err := visit(rec, cols); err != nil {
			return err
		}
	}
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isSum(rec []string, cols columns) bool {
	for _, idx := range []int{cols.language, cols.filename} {
		if idx >= 0 && idx < len(rec) && isSumLabel(rec[idx]) {
			return true
		}
	}
	return false
}

func isSumLabel(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	return strings.EqualFold(s, "SUM")
}

func headerColumns(rec []string) (columns, bool) {
	cols := columns{language: -1, filename: -1, files: -1, blank: -1, comment: -1, code: -1}
	for i, c := range rec {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "language":
			cols.language = i
		case "filename", "file":
			cols.filename = i
		case "files", "nfiles":
			cols.files = i
		case "blank":
			cols.blank = i
		case "comment":
			cols.comment = i
		case "code":
			cols.code = i
		}
	}
	return cols, cols.language >= 0 && cols.code >= 0
}

func cell(rec []string, idx int) (string, error) {
	if idx < 0 || idx >= len(rec) {
		return "", fmt.Errorf("%w: row %q has no column %d", domain.ErrCountingBackend, strings.Join(rec, ","), idx)
	}
	return strings.TrimSpace(rec[idx]), nil
}

func intCell(rec []string, idx int) (int, error) {
	if idx < 0 {
		return 0, nil
	}
	s, err := cell(rec, idx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid count %q in row %q", domain.ErrCountingBackend, s, strings.Join(rec, ","))
	}
	return n, nil
}

func languageRow(rec []string, cols columns) (domain.LanguageRow, error) {
	lang, err := cell(rec, cols.language)
	if err != nil {
		return domain.LanguageRow{}, err
	}
	if lang == "" {
		return domain.LanguageRow{}, fmt.Errorf("%w: row %q has no language", domain.ErrCountingBackend, strings.Join(rec, ","))
	}
	row := domain.LanguageRow{Language: lang}
	if row.Files, err = intCell(rec, cols.files); err != nil {
		return row, err
	}
	if row.Blank, err = intCell(rec, cols.blank); err != nil {
		return row, err
	}
	if row.Comment, err = intCell(rec, cols.comment); err != nil {
		return row, err
	}
	if row.Code, err = intCell(rec, cols.code); err != nil {
		return row, err
	}
	return row, nil
}

type jsonLanguage struct {
	NFiles  int `json:"nFiles"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

func parseJSON(raw []byte) ([]domain.LanguageRow, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCountingBackend, err)
	}
	var rows []domain.LanguageRow
	for key, value := range doc {
		if key == "header" || isSumLabel(key) {
			continue
		}
		var lang jsonLanguage
		if err := json.Unmarshal(value, &lang); err != nil {
			return nil, fmt.Errorf("%w: language %q: %w", domain.ErrCountingBackend, key, err)
		}
		rows = append(rows, domain.LanguageRow{
			Language: key,
			Files:    lang.NFiles,
			Blank:    lang.Blank,
			Comment:  lang.Comment,
			Code:     lang.Code,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Language < rows[j].Language
	})
	return rows, nil
}

// parseTable reads the fixed-width text table. Lines before the Language header
// are banner text; after it every line must be a rule, a data row or SUM.
func parseTable(raw []byte) ([]domain.LanguageRow, error) {
	var rows []domain.LanguageRow
	inTable := false

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.Trim(line, "-=") == "" {
			continue
		}
		fields := strings.Fields(line)
		if strings.EqualFold(fields[0], "language") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if isSumLabel(fields[0]) {
			break
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("%w: malformed row %q", domain.ErrCountingBackend, line)
		}
		n := len(fields)
		nums := make([]int, 4)
		for i, f := range fields[n-4:] {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("%w: malformed row %q", domain.ErrCountingBackend, line)
			}
			nums[i] = v
		}
		rows = append(rows, domain.LanguageRow{
			Language: strings.Join(fields[:n-4], " "),
			Files:    nums[0],
			Blank:    nums[1],
			Comment:  nums[2],
			Code:     nums[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCountingBackend, err)
	}
	if !inTable {
		return nil, fmt.Errorf("%w: no Language header", domain.ErrCountingBackend)
	}
	return rows, nil
}
