// Package errors provides the coded error type used throughout gpsd4go.
//
// Every package declares its own codes in an errors.go file and returns *Error
// values built with New or Wrap, so callers can branch on Is(err, code) instead
// of matching strings.
package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Error is a coded error with optional cause and key/value context.
type Error struct {
	Code      Code
	Message   string
	Cause     error
	Context   map[string]string
	Stack     []Frame
	Timestamp time.Time
}

// Frame is one captured caller frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

const maxStackDepth = 10

// New creates an error with the given code. An optional cause may be passed;
// only the first non-nil one is kept.
func New(code Code, message string, cause ...error) *Error {
	e := &Error{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     captureStackTrace(),
	}
	for _, c := range cause {
		if c != nil {
			e.Cause = c
			break
		}
	}
	return e
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err.
func Wrap(code Code, err error, message string) *Error {
	return New(code, message, err)
}

func Wrapf(code Code, err error, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), err)
}

// AddContext sets a context value and returns e for chaining.
func (e *Error) AddContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func captureStackTrace() []Frame {
	pcs := make([]uintptr, maxStackDepth)
	// skip runtime.Callers, captureStackTrace and the constructor
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]Frame, 0, n)
	for {
		f, more := frames.Next()
		stack = append(stack, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return stack
}
