// Package replay runs YAML edit scripts against immutable texts.
//
// A script names an initial text and a list of steps. Each step produces a
// new version of the text that shares structure with its parent:
//
//	name: greeting
//	initial: "hello"
//	steps:
//	  - op: insert
//	    at: 5
//	    text: " world"
//	    save: greeting
//	  - op: remove
//	    at: 0
//	    count: 6
//	    expect: "world"
//	  - op: concat
//	    refs: [greeting, greeting]
//	    text: " / "
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Op is the operation a step applies.
type Op string

// Supported operations.
const (
	// OpInsert inserts the operand before At.
	OpInsert Op = "insert"
	// OpRemove removes Count characters starting at At.
	OpRemove Op = "remove"
	// OpSlice keeps only Count characters starting at At.
	OpSlice Op = "slice"
	// OpAppend appends the operand.
	OpAppend Op = "append"
	// OpPrepend prepends the operand.
	OpPrepend Op = "prepend"
	// OpConcat replaces the text with the saved versions in Refs joined by Text.
	OpConcat Op = "concat"
	// OpLua replaces the text with the result of the Lua chunk in Code.
	OpLua Op = "lua"
)

var knownOps = map[Op]bool{
	OpInsert:  true,
	OpRemove:  true,
	OpSlice:   true,
	OpAppend:  true,
	OpPrepend: true,
	OpConcat:  true,
	OpLua:     true,
}

// Script is a parsed edit script.
type Script struct {
	Name    string `yaml:"name"`
	Initial string `yaml:"initial"`
	Steps   []Step `yaml:"steps"`
}

// Step is one operation of an edit script.
type Step struct {
	Op Op `yaml:"op"`

	// At is the character index the operation applies at.
	At int `yaml:"at"`
	// Count is the number of characters removed or kept.
	Count int `yaml:"count"`

	// Text is the literal operand, or the separator for concat.
	Text string `yaml:"text"`
	// Ref names a saved version to use as operand instead of Text.
	Ref string `yaml:"ref"`
	// Refs names the saved versions joined by concat.
	Refs []string `yaml:"refs"`
	// Code is the Lua chunk run by the lua operation.
	Code string `yaml:"code"`

	// Save names the version this step produces.
	Save string `yaml:"save"`
	// Expect, when set, is the content the step must produce.
	Expect *string `yaml:"expect"`

	// Repeat applies the step this many times. Zero means once.
	Repeat int `yaml:"repeat"`
	// Stride is added to At after each repetition.
	Stride int `yaml:"stride"`
}

// times returns how many times the step applies.
func (s Step) times() int {
	return max(s.Repeat, 1)
}

// Parse decodes an edit script and validates its steps.
// Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parsing edit script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the edit script at path.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Validate checks that every step names a known operation and carries
// the fields it needs. Index bounds are checked when the step runs.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return &StepError{Index: i, Op: step.Op, Err: err}
		}
	}
	return nil
}

func (s Step) validate() error {
	if !knownOps[s.Op] {
		return fmt.Errorf("%w %q", ErrUnknownOp, s.Op)
	}
	if s.Repeat < 0 {
		return fmt.Errorf("%w: repeat must not be negative", ErrInvalidStep)
	}
	if s.Ref != "" && s.Text != "" && s.Op != OpConcat {
		return fmt.Errorf("%w: text and ref are exclusive", ErrInvalidStep)
	}
	switch s.Op {
	case OpConcat:
		if len(s.Refs) == 0 {
			return fmt.Errorf("%w: concat needs refs", ErrInvalidStep)
		}
	case OpLua:
		if s.Code == "" {
			return fmt.Errorf("%w: lua needs code", ErrInvalidStep)
		}
	}
	return nil
}
