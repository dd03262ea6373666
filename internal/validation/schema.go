// Package validation checks imported front matter against a JSON schema.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("validation: front matter schema invalid")
	ErrSchemaValidation = errors.New("validation: front matter rejected")
)

const schemaResource = "front-matter.json"

// Issue is one schema violation, located by JSON pointer.
type Issue struct {
	Pointer string
	Message string
}

func (i Issue) String() string {
	pointer := "#" + strings.TrimPrefix(i.Pointer, "#")
	if i.Message == "" {
		return pointer
	}
	return pointer + ": " + i.Message
}

// FrontMatterError lists every violation found in one document.
type FrontMatterError struct {
	Issues []Issue
}

func (e *FrontMatterError) Error() string {
	if len(e.Issues) == 0 {
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, len(e.Issues))
	for idx, issue := range e.Issues {
		parts[idx] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func (e *FrontMatterError) Unwrap() error { return ErrSchemaValidation }

// Issues returns the violations carried by err, if any.
func Issues(err error) []Issue {
	var fmErr *FrontMatterError
	if errors.As(err, &fmErr) {
		return fmErr.Issues
	}
	return nil
}

// Schema validates front matter maps. A nil *Schema accepts everything.
type Schema struct {
	compiled *jsonschema.Schema
}

// ParseSchema reads a schema file's contents. Blank input yields a nil Schema.
func ParseSchema(raw []byte) (*Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return Compile(doc)
}

// Compile accepts either a JSON schema (draft 2020-12) or the compact form
//
//	{"fields": {"title": "string!", "tags": "array", "summary": ""}}
//
// where a trailing "!" marks the field required and an empty type allows any
// value. Compact schemas may set "additionalProperties".
func Compile(doc map[string]any) (*Schema, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	if fields, ok := doc["fields"].(map[string]any); ok {
		expanded, err := expandFields(fields)
		if err != nil {
			return nil, err
		}
		if extra, ok := doc["additionalProperties"].(bool); ok {
			expanded["additionalProperties"] = extra
		}
		doc = expanded
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

var jsonTypes = map[string]bool{
	"string": true, "number": true, "integer": true, "boolean": true,
	"object": true, "array": true, "null": true,
}

func expandFields(fields map[string]any) (map[string]any, error) {
	properties := make(map[string]any, len(fields))
	var required []string
	for name, raw := range fields {
		fieldType, _ := raw.(string)
		fieldType = strings.ToLower(strings.TrimSpace(fieldType))
		if strings.HasSuffix(fieldType, "!") {
			fieldType = strings.TrimSuffix(fieldType, "!")
			required = append(required, name)
		}
		switch {
		case fieldType == "":
			properties[name] = map[string]any{}
		case jsonTypes[fieldType]:
			properties[name] = map[string]any{"type": fieldType}
		default:
			return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrSchemaInvalid, name, fieldType)
		}
	}
	expanded := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		sort.Strings(required)
		expanded["required"] = required
	}
	return expanded, nil
}

// Validate checks front matter. Values are re-encoded as JSON first so
// time.Time and Go integer types are seen the way the schema describes them.
func (s *Schema) Validate(frontMatter map[string]any) error {
	if s == nil {
		return nil
	}
	if frontMatter == nil {
		frontMatter = map[string]any{}
	}
	encoded, err := json.Marshal(frontMatter)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	err = s.compiled.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return &FrontMatterError{Issues: leafIssues(verr, nil)}
}

// leafIssues flattens the cause tree; only leaves describe concrete problems.
func leafIssues(node *jsonschema.ValidationError, acc []Issue) []Issue {
	if len(node.Causes) == 0 {
		return append(acc, Issue{Pointer: node.InstanceLocation, Message: node.Message})
	}
	for _, cause := range node.Causes {
		acc = leafIssues(cause, acc)
	}
	return acc
}
