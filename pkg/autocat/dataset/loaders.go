package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// LoadJSONL loads a table from a JSON Lines file. Each line is one
// object; values are stringified into cells. Malformed lines are
// skipped with a warning rather than failing the whole load.
func LoadJSONL(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read file %s: %w", path, err)
	}

	var t Table
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}

		row := make(Row, len(raw))
		for key, val := range raw {
			row[key] = stringifyCell(val)
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return Table{}, fmt.Errorf("%w: no valid rows found in %s", internalerr.ErrInvalidInput, path)
	}
	return t, nil
}

// LoadCSV loads a table from a CSV file. The first record is the
// header; subsequent records become rows keyed by header name.
func LoadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) < 2 {
		return Table{}, fmt.Errorf("%w: no data rows in %s", internalerr.ErrInvalidInput, path)
	}

	header := records[0]
	var t Table
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func stringifyCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
