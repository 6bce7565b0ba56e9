// Package profiler contains the Profiler domain: precise JS execution
// coverage.
package profiler

// CoverageRange is coverage data for one source range.
type CoverageRange struct {
	// StartOffset is the script source offset for the range start.
	StartOffset int64 `json:"startOffset"`
	// EndOffset is the script source offset for the range end.
	EndOffset int64 `json:"endOffset"`
	// Count is the collected execution count of the range.
	Count int64 `json:"count"`
}

// FunctionCoverage is coverage data for one JS function.
type FunctionCoverage struct {
	FunctionName string          `json:"functionName"`
	Ranges       []CoverageRange `json:"ranges"`
}

// ScriptCoverage is line coverage for a single script.
// See https://chromedevtools.github.io/devtools-protocol/tot/Profiler#type-ScriptCoverage
type ScriptCoverage struct {
	ScriptID string `json:"scriptId"`
	// URL is the name or URL of the script.
	URL       string             `json:"url"`
	Functions []FunctionCoverage `json:"functions"`
}

type Enable struct{}

func (Enable) MethodName() string { return "Profiler.enable" }

type EnableReply struct{}

type Disable struct{}

func (Disable) MethodName() string { return "Profiler.disable" }

type DisableReply struct{}

type StartPreciseCoverage struct {
	CallCount *bool `json:"callCount,omitempty"`
	Detailed  *bool `json:"detailed,omitempty"`
}

func (StartPreciseCoverage) MethodName() string { return "Profiler.startPreciseCoverage" }

type StartPreciseCoverageReply struct{}

type StopPreciseCoverage struct{}

func (StopPreciseCoverage) MethodName() string { return "Profiler.stopPreciseCoverage" }

type StopPreciseCoverageReply struct{}

type TakePreciseCoverage struct{}

func (TakePreciseCoverage) MethodName() string { return "Profiler.takePreciseCoverage" }

type TakePreciseCoverageReply struct {
	Result []ScriptCoverage `json:"result"`
}
