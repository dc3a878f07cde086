package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code identifies a failure as "package.name" or "package.component.name".
// Codes are compared by value.
type Code struct {
	value string
}

// Codes shared by packages that have no taxonomy of their own.
var (
	CommonInternal     = MustNewCode("common.internal")
	CommonValidation   = MustNewCode("common.validation")
	CommonTimeout      = MustNewCode("common.timeout")
	CommonUnsupported  = MustNewCode("common.unsupported")
	CommonInvalidInput = MustNewCode("common.invalid_input")
)

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// NewCode validates s and returns it as a Code.
func NewCode(s string) (Code, error) {
	if !codeRegex.MatchString(s) {
		return Code{}, fmt.Errorf("invalid code format '%s': must be 'package.name' (lowercase, underscores, dots only)", s)
	}

	// "error" in a code is always redundant
	if strings.Contains(s, "err") {
		return Code{}, fmt.Errorf("invalid code '%s': should not contain 'error' or 'err'", s)
	}

	return Code{value: s}, nil
}

// MustNewCode is NewCode for package-level declarations; it panics on an invalid code.
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string {
	return c.value
}

// Package returns the part before the first dot.
func (c Code) Package() string {
	if idx := strings.IndexByte(c.value, '.'); idx != -1 {
		return c.value[:idx]
	}
	return ""
}

// Name returns the part after the last dot.
func (c Code) Name() string {
	if idx := strings.LastIndexByte(c.value, '.'); idx != -1 {
		return c.value[idx+1:]
	}
	return c.value
}

func (c Code) IsZero() bool {
	return c.value == ""
}

func (c Code) Equals(other Code) bool {
	return c.value == other.value
}
