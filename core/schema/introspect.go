package schema

// Introspection types describe a built Schema to editors over HTTP.
// They let a remote editor discover modules, fields, types and bounds
// without linking against this package.

// SchemaResponse is returned by GET /v1/schema.
type SchemaResponse struct {
	Modules []ModuleSummary `json:"modules"`
	Fields  []FieldSchema   `json:"fields"`
	Count   int             `json:"count"`
}

// ModuleSummary lists a module and its field names.
type ModuleSummary struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// FieldSchema describes a single field for introspection.
type FieldSchema struct {
	Name        string `json:"name"`
	Module      string `json:"module"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Comment     string `json:"comment,omitempty"`
	Default     any    `json:"default"`
	Min         any    `json:"min,omitempty"`
	Max         any    `json:"max,omitempty"`
	Syncable    bool   `json:"syncable"`
}

// Introspect renders s as a SchemaResponse. Non-syncable fields are left
// out unless includeNonSyncable is set, matching what a peer may see.
func Introspect(s *Schema, includeNonSyncable bool) SchemaResponse {
	resp := SchemaResponse{
		Modules: []ModuleSummary{},
		Fields:  []FieldSchema{},
	}
	byModule := make(map[string]int)

	for _, f := range s.fields {
		if !f.Syncable && !includeNonSyncable {
			continue
		}

		fs := FieldSchema{
			Name:        f.Name,
			Module:      f.Module,
			Type:        f.Kind.String(),
			DisplayName: f.DisplayName,
			Comment:     f.Comment,
			Default:     f.Default.Interface(),
			Syncable:    f.Syncable,
		}
		if f.Range != nil {
			fs.Min = f.Range.Min.Interface()
			fs.Max = f.Range.Max.Interface()
		}
		resp.Fields = append(resp.Fields, fs)

		i, ok := byModule[f.Module]
		if !ok {
			i = len(resp.Modules)
			byModule[f.Module] = i
			resp.Modules = append(resp.Modules, ModuleSummary{Name: f.Module})
		}
		resp.Modules[i].Fields = append(resp.Modules[i].Fields, f.Name)
	}

	resp.Count = len(resp.Fields)
	return resp
}
