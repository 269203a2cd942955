package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/MalithGihan/pdfeditor/internal/logging"
	"github.com/MalithGihan/pdfeditor/internal/processor"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

// Node is the engine-facing processor for PDF edits.
type Node struct {
	editor *Editor
	probe  error
	log    *zap.Logger
}

// NewNode wires an editor into a processor. probe is the result of the
// startup capability check; when it is non-nil every request fails without
// touching the filesystem.
func NewNode(ed *Editor, probe error, log *zap.Logger) *Node {
	if log == nil {
		log = logging.Nop()
	}
	return &Node{editor: ed, probe: probe, log: log}
}

func (n *Node) Process(ctx context.Context, req types.ExecutionRequest) (res types.ExecutionResult, err error) {
	if n.probe != nil {
		return types.Failure("Error: Missing PDF libraries: " + n.probe.Error()), nil
	}
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("edit panic", zap.Any("panic", r))
			res = types.Failure(fmt.Sprintf("Error processing PDF: %v", r))
		}
	}()

	inputs := map[string]any{
		"pdfPath": req.Input("pdfPath", "", ""),
		"newText": req.Input("newText", "", ""),
		"locator": req.Input("locator", "", ""),
	}
	if err := processor.ValidateRequired(inputs, "pdfPath", "newText", "locator"); err != nil {
		return types.Failure("Error processing PDF: " + err.Error()), nil
	}
	pdfPath := processor.Stringify(inputs["pdfPath"])
	newText := processor.Stringify(inputs["newText"])
	loc := processor.Stringify(inputs["locator"])

	if vars, ok := req.Input("variables", "", nil).(map[string]any); ok {
		newText = processor.SubstituteVariables(newText, vars)
	}

	if !processor.FileExists(pdfPath) {
		return types.Failure("Error: PDF file not found: " + pdfPath), nil
	}
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		n.log.Warn("input does not have a .pdf extension", zap.String("path", pdfPath))
	}

	return n.editor.EditPDF(ctx, pdfPath, newText, loc).Result(), nil
}
