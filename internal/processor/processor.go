// Package processor implements the stdin/stdout protocol shared by every
// engine node: one JSON request in, one JSON result out.
package processor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/MalithGihan/pdfeditor/internal/logging"
	"github.com/MalithGihan/pdfeditor/internal/validate"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

type Processor interface {
	Process(ctx context.Context, req types.ExecutionRequest) (types.ExecutionResult, error)
}

// Run drains in, dispatches the request to p and writes exactly one result
// line to out. Only failures to write out are returned.
func Run(ctx context.Context, in io.Reader, out io.Writer, p Processor, log *zap.Logger) error {
	if log == nil {
		log = logging.Nop()
	}
	return Write(out, handle(ctx, in, p, log))
}

// Write emits res as a single JSON line and flushes.
func Write(out io.Writer, res types.ExecutionResult) error {
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return w.Flush()
}

func handle(ctx context.Context, in io.Reader, p Processor, log *zap.Logger) (res types.ExecutionResult) {
	raw, err := io.ReadAll(in)
	if err != nil {
		log.Warn("read stdin", zap.Error(err))
		return types.Failure("Error during processing: " + err.Error())
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn("bad input json", zap.Error(err))
		return types.Failure("Error parsing input JSON: " + err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("processor panic", zap.Any("panic", r))
			res = types.Failure(fmt.Sprintf("Error during processing: %v", r))
		}
	}()

	if err := validate.Request(doc); err != nil {
		log.Warn("invalid request", zap.Error(err))
		return types.Failure("Error during processing: " + err.Error())
	}
	var req types.ExecutionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return types.Failure("Error during processing: " + err.Error())
	}

	res, err = p.Process(ctx, req)
	if err != nil {
		log.Warn("process failed", zap.Error(err))
		return types.Failure("Error during processing: " + err.Error())
	}
	return res
}
