package elastic

import (
	"bytes"
	"fmt"

	"esmrebuild/indexer"
	"esmrebuild/models"

	"github.com/bytedance/sonic"
)

type bulkMeta struct {
	Index string `json:"_index"`
	Type  string `json:"_type,omitempty"`
	ID    string `json:"_id"`
}

type bulkLine struct {
	Index bulkMeta `json:"index"`
}

// EncodeBulk renders actions as an NDJSON _bulk body
func EncodeBulk(actions []models.IndexAction, includeType bool) ([]byte, error) {
	var buf bytes.Buffer
	for _, action := range actions {
		meta := bulkLine{Index: bulkMeta{Index: action.Index, ID: action.ID}}
		if includeType {
			meta.Index.Type = action.Type
		}

		line, err := sonic.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("encoding bulk metadata for %s: %w", action.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')

		source, err := sonic.Marshal(action.Source)
		if err != nil {
			return nil, fmt.Errorf("encoding document %s: %w", action.ID, err)
		}
		buf.Write(source)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// BulkResponse is the response returned by Elasticsearch for a _bulk request
type BulkResponse struct {
	Took   int                           `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]BulkResponseItem `json:"items"`
}

// BulkResponseItem is the result of one action of a bulk request
type BulkResponseItem struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// DecodeBulkResponse counts indexed documents and collects rejected ones
func DecodeBulkResponse(data []byte) (indexer.BulkResult, error) {
	var res BulkResponse
	if err := sonic.Unmarshal(data, &res); err != nil {
		return indexer.BulkResult{}, fmt.Errorf("decoding bulk response: %w", err)
	}

	var result indexer.BulkResult
	for _, entry := range res.Items {
		for _, item := range entry {
			if item.Error == nil && item.Status >= 200 && item.Status <= 299 {
				result.Indexed++
				continue
			}

			failure := indexer.BulkFailure{
				Index:  item.Index,
				ID:     item.ID,
				Status: item.Status,
			}
			if item.Error != nil {
				failure.Type = item.Error.Type
				failure.Reason = item.Error.Reason
			}
			result.Failed = append(result.Failed, failure)
		}
	}

	return result, nil
}
