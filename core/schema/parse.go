package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a module declaration from a YAML file.
func ParseFile(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("read file %s: %w", path, err)
	}

	mod, err := Parse(data)
	if err != nil {
		return Module{}, fmt.Errorf("%s: %w", path, err)
	}
	return mod, nil
}

// Parse parses a module declaration from YAML bytes.
func Parse(data []byte) (Module, error) {
	var mod Module
	if err := yaml.Unmarshal(data, &mod); err != nil {
		return Module{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(mod); err != nil {
		return Module{}, fmt.Errorf("validate module %q: %w", mod.Name, err)
	}

	return mod, nil
}

// ParseDir parses all module declarations from a directory, including subdirectories.
func ParseDir(dir string) ([]Module, error) {
	var modules []Module

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			subModules, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			modules = append(modules, subModules...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		mod, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		modules = append(modules, mod)
	}

	return modules, nil
}

// Validate performs the per-module structural checks that need no other
// module: names present and identifiers well formed. Cross-module checks
// and type checks happen in registry.Build.
func Validate(mod Module) error {
	var errs []string

	if mod.Name == "" {
		errs = append(errs, "module name is required")
	} else if !isValidIdentifier(mod.Name) {
		errs = append(errs, fmt.Sprintf("module name %q is not a valid identifier", mod.Name))
	}

	for i, f := range mod.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: name is required", i))
			continue
		}
		if !isValidIdentifier(f.Name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", f.Name))
		}
		if f.Type == "" {
			errs = append(errs, fmt.Sprintf("field %q: type is required", f.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// isValidIdentifier accepts letters, digits, '_' and '.', not starting with a digit.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9', c == '.':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
