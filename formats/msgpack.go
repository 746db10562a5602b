package formats

import (
	"fmt"
	"reflect"

	"esmrebuild/models"

	"github.com/hashicorp/go-msgpack/codec"
)

// MsgpackParser implements DocumentParser for MessagePack format
// Expects an array of maps in MessagePack format
type MsgpackParser struct{}

// Handle returns the codec handle used for exported documents.
// Nested maps decode with string keys so they can be re-encoded as JSON.
func Handle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{RawToString: true}
	h.MapType = reflect.TypeOf(map[string]any(nil))
	return h
}

// Parse parses MessagePack format data
func (p *MsgpackParser) Parse(data []byte) ([]models.SourceDocument, error) {
	var raw []map[string]any

	decoder := codec.NewDecoderBytes(data, Handle())

	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid MessagePack data: %w", err)
	}

	documents := make([]models.SourceDocument, len(raw))
	for i, doc := range raw {
		documents[i] = models.SourceDocument(doc)
	}

	return documents, nil
}
