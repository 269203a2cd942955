package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/pdfeditor/pkg/types"
)

type processFunc func(context.Context, types.ExecutionRequest) (types.ExecutionResult, error)

func (f processFunc) Process(ctx context.Context, req types.ExecutionRequest) (types.ExecutionResult, error) {
	return f(ctx, req)
}

func run(t *testing.T, in string, p Processor) (types.ExecutionResult, string) {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), strings.NewReader(in), &out, p, nil))
	require.True(t, strings.HasSuffix(out.String(), "\n"))
	require.Equal(t, 1, strings.Count(out.String(), "\n"))

	var res types.ExecutionResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	return res, out.String()
}

func TestRunDispatches(t *testing.T) {
	var got types.ExecutionRequest
	p := processFunc(func(_ context.Context, req types.ExecutionRequest) (types.ExecutionResult, error) {
		got = req
		return types.ExecutionResult{Output: "<done> & ok", Status: true}, nil
	})

	res, raw := run(t, `{"properties":{"properties":{"a":1}},"runtimeInputs":{"b":"x"}}`, p)
	assert.True(t, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "<done> & ok", res.Output)
	assert.Contains(t, raw, "<done> & ok", "html characters are not escaped")
	assert.NotContains(t, raw, "modified_pages")

	assert.Equal(t, float64(1), got.Properties.Properties["a"])
	assert.Equal(t, "x", got.RuntimeInputs["b"])
}

func TestRunFailures(t *testing.T) {
	ok := processFunc(func(context.Context, types.ExecutionRequest) (types.ExecutionResult, error) {
		return types.ExecutionResult{Status: true}, nil
	})

	tests := []struct {
		name   string
		in     string
		p      Processor
		prefix string
	}{
		{"malformed json", `{"properties":`, ok, "Error parsing input JSON: "},
		{"empty input", ``, ok, "Error parsing input JSON: "},
		{"not an object", `[1]`, ok, "Error during processing: invalid execution request"},
		{"wrong property type", `{"runtimeInputs":"x"}`, ok, "Error during processing: invalid execution request"},
		{"processor error", `{}`, processFunc(func(context.Context, types.ExecutionRequest) (types.ExecutionResult, error) {
			return types.ExecutionResult{}, errors.New("boom")
		}), "Error during processing: boom"},
		{"processor panic", `{}`, processFunc(func(context.Context, types.ExecutionRequest) (types.ExecutionResult, error) {
			panic("kaput")
		}), "Error during processing: kaput"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, _ := run(t, tc.in, tc.p)
			assert.False(t, res.Status)
			assert.Equal(t, 1, res.ExitCode)
			assert.True(t, strings.HasPrefix(res.Output, tc.prefix), res.Output)
		})
	}
}

func TestWriteIncludesEditFields(t *testing.T) {
	var out bytes.Buffer
	res := types.EditResult{Success: true, Message: "done", ModifiedPages: 0, OutputPath: "/x.pdf"}.Result()
	require.NoError(t, Write(&out, res))
	assert.JSONEq(t, `{"output":"done","status":true,"exitCode":0,"modified_pages":0,"output_path":"/x.pdf"}`, out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRunReportsWriteErrors(t *testing.T) {
	err := Run(context.Background(), strings.NewReader("{}"), failingWriter{}, processFunc(
		func(context.Context, types.ExecutionRequest) (types.ExecutionResult, error) {
			return types.ExecutionResult{Status: true}, nil
		}), nil)
	assert.Error(t, err)
}
