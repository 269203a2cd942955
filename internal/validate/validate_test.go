package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestRequest(t *testing.T) {
	valid := []string{
		`{}`,
		`{"properties":{"properties":{"pdfPath":"a.pdf"}}}`,
		`{"properties":null,"runtimeInputs":null}`,
		`{"properties":{},"runtimeInputs":{"locator":"all"},"extra":1}`,
	}
	for _, s := range valid {
		assert.NoError(t, Request(decode(t, s)), s)
	}

	invalid := []string{
		`[]`,
		`"text"`,
		`{"properties":[]}`,
		`{"properties":{"properties":"pdfPath"}}`,
		`{"runtimeInputs":42}`,
	}
	for _, s := range invalid {
		err := Request(decode(t, s))
		if assert.Error(t, err, s) {
			assert.Contains(t, err.Error(), "invalid execution request")
		}
	}
}
