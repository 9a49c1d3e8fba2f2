package db

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed takma.schema.json
var schemaJSON []byte

const schemaURL = "takma.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	errCompile     error
)

// ValidationError is a schema violation at a location in the document.
type ValidationError struct {
	Path string // dotted path to the offending value
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}

	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult lists every violation found in a document.
type ValidationResult struct {
	Valid  bool
	Errors []error
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			errCompile = fmt.Errorf("error adding schema: %w", err)

			return
		}

		compiledSchema, errCompile = compiler.Compile(schemaURL)
	})

	return compiledSchema, errCompile
}

// Validate checks a serialized document against the save file schema.
// The returned error is only set when data is not JSON at all or the schema cannot be loaded.
func Validate(data []byte) (*ValidationResult, error) {
	s, err := schema()
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("error parsing document: %w", err)
	}

	result := &ValidationResult{Valid: true, Errors: []error{}}

	if err := s.Validate(v); err != nil {
		result.Valid = false

		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			collectSchemaErrors(result, ve)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}

	return result, nil
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: pointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})

		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// pointerToPath turns "/boards/0/lists" into "boards[0].lists".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")

	var b strings.Builder

	for _, part := range strings.Split(ptr, "/") {
		if part == "" {
			continue
		}

		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")

		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)

			continue
		}

		if b.Len() > 0 {
			b.WriteByte('.')
		}

		b.WriteString(part)
	}

	return b.String()
}
