// Command errorcode-checker audits pkg/errors codes across the module: every
// declared code must be valid, prefixed with its package name, unique and
// used, and non-test code must not build errors without a code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gear6io/gpsd4go/pkg/errors"
)

func main() {
	var (
		dir        = flag.String("dir", ".", "Directory to check")
		configPath = flag.String("config", "", "Path to configuration file")
		verbose    = flag.Bool("v", false, "List used codes too")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatError(err))
		os.Exit(2)
	}
	if *verbose {
		cfg.Verbose = true
	}

	checker := NewErrorCodeChecker(cfg)

	fmt.Printf("🔍 Checking error codes in %s\n\n", *dir)
	if err := checker.CheckDirectory(*dir); err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatError(err))
		os.Exit(2)
	}

	allUsed, usage := checker.UsageReport()
	printLines(usage)

	unique, duplicates := checker.DuplicateReport()
	printLines(duplicates)

	clean, violations := checker.ViolationReport()
	printLines(violations)

	fmt.Println("📊 SUMMARY")
	failed := false
	if !allUsed {
		fmt.Println("❌ Found unused error codes")
		failed = failed || cfg.ExitOnUnused
	}
	if !unique {
		fmt.Println("❌ Found duplicate error codes")
		failed = true
	}
	if !clean {
		fmt.Println("❌ Found violations")
		failed = failed || cfg.ExitOnViolations
	}
	if failed {
		os.Exit(1)
	}
	fmt.Println("✅ All checks passed")
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
	if len(lines) > 0 {
		fmt.Println()
	}
}
