package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// Name returns the formatter name.
func (YAMLFormatter) Name() string {
	return "yaml"
}

// Format writes kind, count and data keys.
func (f YAMLFormatter) Format(w io.Writer, res Result, opts FormatOptions) error {
	data := project(res)
	return f.encode(w, map[string]any{
		"kind":  res.Kind,
		"count": len(data),
		"data":  data,
	})
}

// FormatError formats an error as YAML.
func (f YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()})
}

func (YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}
