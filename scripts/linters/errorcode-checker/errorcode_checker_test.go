package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write test file %s: %v", name, err)
		}
	}
	return dir
}

func check(t *testing.T, dir string) *ErrorCodeChecker {
	t.Helper()
	checker := NewErrorCodeChecker(defaultConfig())
	if err := checker.CheckDirectory(dir); err != nil {
		t.Fatalf("Failed to check directory: %v", err)
	}
	return checker
}

func TestUsage(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"session/errors.go": `package session

import "github.com/gear6io/gpsd4go/pkg/errors"

var (
	ErrClosed  = errors.MustNewCode("session.closed")
	ErrTimeout = errors.MustNewCode("session.timeout")
	ErrUnused  = errors.MustNewCode("session.unused")
)
`,
		"session/session.go": `package session

import "github.com/gear6io/gpsd4go/pkg/errors"

func Close() error {
	return errors.New(ErrClosed, "closed")
}
`,
		"app/main.go": `package main

import (
	"github.com/gear6io/gpsd4go/pkg/errors"
	"example.com/x/session"
)

func main() {
	_ = errors.Is(nil, session.ErrTimeout)
}
`,
	})

	checker := check(t, dir)
	if len(checker.codes) != 3 {
		t.Fatalf("Expected 3 codes, got %d", len(checker.codes))
	}

	allUsed, report := checker.UsageReport()
	if allUsed {
		t.Error("Expected an unused code")
	}
	joined := strings.Join(report, "\n")
	if !strings.Contains(joined, "UNUSED: ErrUnused") {
		t.Errorf("Expected ErrUnused in report, got:\n%s", joined)
	}
	if strings.Contains(joined, "UNUSED: ErrClosed") || strings.Contains(joined, "UNUSED: ErrTimeout") {
		t.Errorf("Used codes reported as unused:\n%s", joined)
	}
}

func TestViolations(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"relay/errors.go": `package relay

import "github.com/gear6io/gpsd4go/pkg/errors"

var (
	ErrWrongPrefix = errors.MustNewCode("hub.closed")
	ErrBadFormat   = errors.MustNewCode("Relay-Closed")
)
`,
		"relay/hub.go": `package relay

import (
	"errors"
	"fmt"
)

var _ = errors.New("plain")

func fail() error {
	return fmt.Errorf("wrapped: %w", ErrWrongPrefix, ErrBadFormat)
}
`,
		"relay/hub_test.go": `package relay

import "fmt"

var _ = fmt.Errorf("fine in tests")
`,
	})

	checker := check(t, dir)
	clean, report := checker.ViolationReport()
	if clean {
		t.Fatal("Expected violations")
	}

	kinds := map[string]int{}
	for _, v := range checker.violations {
		kinds[v.Kind]++
	}
	for kind, want := range map[string]int{"PREFIX": 1, "INVALID": 1, "STDLIB": 1, "FORBIDDEN": 1} {
		if kinds[kind] != want {
			t.Errorf("Expected %d %s violation(s), got %d\n%s", want, kind, kinds[kind], strings.Join(report, "\n"))
		}
	}
}

func TestDuplicates(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a/errors.go": `package a

import "github.com/gear6io/gpsd4go/pkg/errors"

var ErrOne = errors.MustNewCode("shared.closed")
`,
		"b/errors.go": `package b

import coded "github.com/gear6io/gpsd4go/pkg/errors"

var ErrTwo = coded.MustNewCode("shared.closed")
`,
	})

	cfg := defaultConfig()
	cfg.CheckPrefix = false
	checker := NewErrorCodeChecker(cfg)
	if err := checker.CheckDirectory(dir); err != nil {
		t.Fatalf("Failed to check directory: %v", err)
	}

	unique, report := checker.DuplicateReport()
	if unique {
		t.Fatal("Expected duplicate codes")
	}
	if !strings.Contains(strings.Join(report, "\n"), "DUPLICATE: shared.closed") {
		t.Errorf("Unexpected report: %v", report)
	}
}

func TestExcludePaths(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"vendor/x/errors.go": `package x

import "github.com/gear6io/gpsd4go/pkg/errors"

var ErrSkipped = errors.MustNewCode("x.skipped")
`,
	})

	checker := check(t, dir)
	if len(checker.codes) != 0 {
		t.Errorf("Expected excluded path to be skipped, found %d codes", len(checker.codes))
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errorcode.yml")
	if err := os.WriteFile(path, []byte("check_prefix: false\nexclude_paths: [\"gen/\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.CheckPrefix {
		t.Error("Expected check_prefix override")
	}
	if len(cfg.ExcludePaths) != 1 || cfg.ExcludePaths[0] != "gen/" {
		t.Errorf("Unexpected exclude paths: %v", cfg.ExcludePaths)
	}
	if !cfg.CheckStdErrors {
		t.Error("Unset fields keep defaults")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
