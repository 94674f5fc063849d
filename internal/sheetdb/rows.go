package sheetdb

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Row is one spreadsheet row. Cell values arrive as strings or numbers
// depending on the sheet, so access goes through the typed getters.
type Row map[string]any

func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		// Whole numbers come back without a fraction; keep them readable.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// decodeRows is the single normalizing decode step at the store boundary.
// The store sometimes returns a bare array, sometimes {"result": …} or
// {"data": …}, and sometimes a single object; callers only ever see []Row.
func decodeRows(body []byte) ([]Row, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	for _, key := range []string{"result", "data"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
		var single Row
		if err := json.Unmarshal(raw, &single); err == nil {
			return []Row{single}, nil
		}
	}

	// A bare object is a single row.
	var single Row
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []Row{single}, nil
}
