package mongodb

import (
	"time"

	"esmrebuild/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDocument converts a decoded BSON document into JSON-compatible values
func toDocument(m bson.M) models.SourceDocument {
	doc := make(models.SourceDocument, len(m))
	for k, v := range m {
		doc[k] = convertValue(v)
	}
	return doc
}

// convertValue converts BSON values to types the index side can encode
func convertValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil

	case primitive.ObjectID:
		return val.Hex()

	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)

	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)

	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC().Format(time.RFC3339)

	case primitive.Decimal128:
		return val.String()

	case primitive.Binary:
		return val.Data

	case primitive.Regex:
		return val.Pattern

	case primitive.JavaScript:
		return string(val)

	case primitive.Symbol:
		return string(val)

	case primitive.Null, primitive.Undefined, primitive.MinKey, primitive.MaxKey:
		return nil

	case primitive.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = convertValue(item)
		}
		return out

	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = convertValue(e.Value)
		}
		return out

	case primitive.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out

	default:
		return val
	}
}
