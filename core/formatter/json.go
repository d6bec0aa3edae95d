package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// Name returns the formatter name.
func (JSONFormatter) Name() string {
	return "json"
}

// Format writes {"kind", "count", "data"}.
func (f JSONFormatter) Format(w io.Writer, res Result, opts FormatOptions) error {
	data := project(res)
	return f.encode(w, map[string]any{
		"kind":  res.Kind,
		"count": len(data),
		"data":  data,
	}, opts.Compact)
}

// FormatError formats an error as JSON.
func (f JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()}, false)
}

func (JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}
