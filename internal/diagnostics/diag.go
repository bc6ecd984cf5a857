package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Common capture diagnostics. The causes and fixes mirror what field
// debugging of this sensor actually turns up.
func CaptureTimeout() Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     "CAPTURE.TIMEOUT",
		Summary:  "vsync never asserted",
		LikelyCauses: []string{
			"master clock not running",
			"vsync wired to the wrong pin",
			"sensor held in shutdown",
		},
		SuggestedFixes: []string{
			"probe mclk and vsync with a scope",
			"check the pins section of the config",
		},
	}
}

func CaptureTruncated(rows int) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     "CAPTURE.TRUNCATED",
		Summary:  "frame ended before expected row count",
		Evidence: map[string]any{"expected_rows": rows},
		LikelyCauses: []string{
			"host too slow for the configured pixel clock",
			"preset window mismatched with sensor state after a failed apply",
		},
	}
}

func RegisterWriteFailed(addr uint8) Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     "SCCB.WRITE",
		Summary:  "register write not acknowledged",
		Evidence: map[string]any{"register": addr},
	}
}
