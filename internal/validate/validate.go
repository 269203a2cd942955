package validate

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "file:///execution_request.schema.json"

//go:embed schema/execution_request.schema.json
var requestSchema []byte

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
)

func load() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(requestSchema)); err != nil {
		loadErr = err
		return
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		loadErr = err
		return
	}
	schema = s
}

// Request checks the envelope of a decoded execution request. v must come
// from encoding/json decoding into an interface value.
func Request(v any) error {
	once.Do(load)
	if loadErr != nil {
		return fmt.Errorf("load request schema: %w", loadErr)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid execution request: %w", err)
	}
	return nil
}
