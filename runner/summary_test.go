package runner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	o := Options{
		Rebuild:  true,
		Mappings: true,
		Node:     "es01:9200",
		Index:    "logs",
		DocTypes: []string{"events", "audits"},
		MapPath:  "/etc/mappings",
		Source:   "mongodb",
		Host:     "mongo01",
		Database: "app",
		PageSize: 250,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, &o))
	out := buf.String()

	assert.Contains(t, out, "es01:9200")
	assert.Contains(t, out, "logs")
	assert.Contains(t, out, "events, audits")
	assert.Contains(t, out, "/etc/mappings")
	assert.Contains(t, out, "true")
	// the source is not part of the run without push
	assert.NotContains(t, out, "mongo01")
	assert.NotContains(t, out, "250")

	o.Push = true
	buf.Reset()
	require.NoError(t, RenderSummary(&buf, &o))
	out = buf.String()

	assert.Contains(t, out, "mongo01")
	assert.Contains(t, out, "app")
	assert.Contains(t, out, "250")
	assert.Equal(t, 1, strings.Count(strings.ToLower(out), "page size"))
}

func TestRenderSummary_Header(t *testing.T) {
	o := Options{Rebuild: true, Node: "es01:9200", Index: "logs", PageSize: DefaultPageSize}

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, &o))
	out := strings.ToLower(buf.String())

	assert.Contains(t, out, "section")
	assert.Contains(t, out, "setting")
	assert.Contains(t, out, "value")
	// the header comes before the first row
	assert.Less(t, strings.Index(out, "section"), strings.Index(out, "es01:9200"))
}
