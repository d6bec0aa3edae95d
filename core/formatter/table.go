package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// Name returns the formatter name.
func (TableFormatter) Name() string {
	return "table"
}

// Format writes one row per record. Without explicit columns, the sorted
// union of record keys is used.
func (f TableFormatter) Format(w io.Writer, res Result, opts FormatOptions) error {
	if len(res.Records) == 0 {
		fmt.Fprintf(w, "No %s found.\n", orDefault(res.Kind, "records"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := res.Columns
	if len(columns) == 0 {
		columns = unionKeys(res.Records)
	}

	if !opts.NoHeader {
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, record := range res.Records {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = FormatValue(record[col], opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// FormatError formats an error message.
func (TableFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %s\n", err.Error())
	return werr
}

// FormatValue renders a cell. nil prints as "-".
func FormatValue(val any, maxWidth int) string {
	if val == nil {
		return "-"
	}

	var str string
	switch v := val.(type) {
	case string:
		str = v
	case bool:
		str = strconv.FormatBool(v)
	case int32:
		str = strconv.FormatInt(int64(v), 10)
	case int64:
		str = strconv.FormatInt(v, 10)
	case int:
		str = strconv.Itoa(v)
	case float32:
		str = strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		str = strconv.FormatFloat(v, 'g', -1, 64)
	case []string:
		str = strings.Join(v, ",")
	case fmt.Stringer:
		str = v.String()
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}
	return str
}

func unionKeys(records []map[string]any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
