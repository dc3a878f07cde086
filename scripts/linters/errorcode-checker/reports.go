package main

import (
	"fmt"
	"sort"
)

// UsageReport lists unused codes grouped by package. It returns true when
// every code is used.
func (c *ErrorCodeChecker) UsageReport() (bool, []string) {
	groups := make(map[string][]*CodeInfo)
	for _, info := range c.codes {
		groups[info.Package] = append(groups[info.Package], info)
	}

	packages := make([]string, 0, len(groups))
	for pkg := range groups {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	allUsed := true
	var report []string
	for _, pkg := range packages {
		infos := groups[pkg]
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

		used := 0
		var lines []string
		for _, info := range infos {
			if info.Used() {
				used++
				if c.cfg.Verbose {
					lines = append(lines, fmt.Sprintf("  ✅ %s (%s) used %d time(s)", info.Name, info.Value, len(info.UsedIn)))
				}
				continue
			}
			allUsed = false
			lines = append(lines, fmt.Sprintf("  ❌ UNUSED: %s (%s) declared in %s:%d", info.Name, info.Value, info.File, info.Line))
		}

		report = append(report, fmt.Sprintf("📦 Package: %s (%d/%d codes used)", pkg, used, len(infos)))
		report = append(report, lines...)
	}
	return allUsed, report
}

// DuplicateReport lists code strings declared more than once.
func (c *ErrorCodeChecker) DuplicateReport() (bool, []string) {
	values := make([]string, 0, len(c.values))
	for v, infos := range c.values {
		if len(infos) > 1 {
			values = append(values, v)
		}
	}
	sort.Strings(values)

	var report []string
	for _, v := range values {
		report = append(report, fmt.Sprintf("❌ DUPLICATE: %s", v))
		for _, info := range c.values[v] {
			report = append(report, fmt.Sprintf("  %s in %s:%d", info.Name, info.File, info.Line))
		}
	}
	return len(values) == 0, report
}

// ViolationReport lists invalid codes, prefix mismatches, standard errors
// imports and forbidden patterns in file order.
func (c *ErrorCodeChecker) ViolationReport() (bool, []string) {
	sorted := append([]Violation(nil), c.violations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Line < sorted[j].Line
	})

	report := make([]string, 0, len(sorted))
	for _, v := range sorted {
		report = append(report, fmt.Sprintf("❌ %s: %s:%d %s", v.Kind, v.File, v.Line, v.Message))
	}
	return len(sorted) == 0, report
}
