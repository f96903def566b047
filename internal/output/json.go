package output

import (
	"encoding/json"

	"tegdb/internal/types"
)

type jsonFormatter struct{}

// resultPayload mirrors smf's jsonFormatter payload-struct-plus-marshal
// pattern: one row-set document per result.
type resultPayload struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func (jsonFormatter) FormatResult(columns []string, rows [][]types.Value) (string, error) {
	payload := resultPayload{Columns: columns, Rows: make([]map[string]any, len(rows))}
	for r, row := range rows {
		obj := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) {
				obj[col] = jsonValue(row[i])
			} else {
				obj[col] = nil
			}
		}
		payload.Rows[r] = obj
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsonValue(v types.Value) any {
	switch v.Kind {
	case types.KindInteger:
		return v.Int
	case types.KindReal:
		return v.Real
	case types.KindText:
		return v.Text
	case types.KindVector:
		return v.Vector
	default:
		return nil
	}
}
