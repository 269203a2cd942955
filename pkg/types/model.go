package types

// ExecutionRequest is the job descriptor the engine writes to stdin.
type ExecutionRequest struct {
	Properties    Properties     `json:"properties"`
	RuntimeInputs map[string]any `json:"runtimeInputs"`
}

type Properties struct {
	Properties map[string]any `json:"properties"`
}

// Input resolves key from runtime inputs first, then declared properties,
// then fallbackKey in declared properties, then def.
func (r ExecutionRequest) Input(key, fallbackKey string, def any) any {
	if v, ok := r.RuntimeInputs[key]; ok {
		return v
	}
	if v, ok := r.Properties.Properties[key]; ok {
		return v
	}
	if fallbackKey != "" {
		if v, ok := r.Properties.Properties[fallbackKey]; ok {
			return v
		}
	}
	return def
}

// ExecutionResult is the single JSON object written to stdout.
type ExecutionResult struct {
	Output        string  `json:"output"`
	Status        bool    `json:"status"`
	ExitCode      int     `json:"exitCode"`
	ModifiedPages *int    `json:"modified_pages,omitempty"`
	OutputPath    *string `json:"output_path,omitempty"`
}

func Failure(msg string) ExecutionResult {
	return ExecutionResult{Output: msg, Status: false, ExitCode: 1}
}

type EditResult struct {
	Success       bool
	Message       string
	ModifiedPages int
	OutputPath    string
}

// Result converts an edit report into the node's output shape.
func (e EditResult) Result() ExecutionResult {
	code := 0
	if !e.Success {
		code = 1
	}
	pages, path := e.ModifiedPages, e.OutputPath
	return ExecutionResult{
		Output:        e.Message,
		Status:        e.Success,
		ExitCode:      code,
		ModifiedPages: &pages,
		OutputPath:    &path,
	}
}
