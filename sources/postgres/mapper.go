package postgres

import (
	"fmt"
	"time"

	"esmrebuild/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// RowToDocument converts the current row into a document keyed by column name
func RowToDocument(rows pgx.Rows) (models.SourceDocument, error) {
	fieldDescs := rows.FieldDescriptions()
	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to get row values: %w", err)
	}

	doc := make(models.SourceDocument, len(fieldDescs))
	for i, fd := range fieldDescs {
		doc[fd.Name] = convertValue(values[i])
	}

	return doc, nil
}

// convertValue converts PostgreSQL values to JSON-compatible types
func convertValue(v any) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)

	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64

	case pgtype.Int4:
		if !val.Valid {
			return nil
		}
		return val.Int32

	case pgtype.Int8:
		if !val.Valid {
			return nil
		}
		return val.Int64

	case pgtype.Float8:
		if !val.Valid {
			return nil
		}
		return val.Float64

	case pgtype.Bool:
		if !val.Valid {
			return nil
		}
		return val.Bool

	case pgtype.Text:
		if !val.Valid {
			return nil
		}
		return val.String

	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return formatUUID(val.Bytes)

	case [16]byte:
		return formatUUID(val)

	case pgtype.Timestamp:
		if !val.Valid {
			return nil
		}
		return val.Time.Format(time.RFC3339)

	case pgtype.Timestamptz:
		if !val.Valid {
			return nil
		}
		return val.Time.Format(time.RFC3339)

	case pgtype.Date:
		if !val.Valid {
			return nil
		}
		return val.Time.Format("2006-01-02")

	case []byte:
		return string(val)

	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val

	// json and jsonb columns
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = convertValue(item)
		}
		return out

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out

	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatUUID(b [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
