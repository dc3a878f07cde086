package main

// CodeInfo describes one errors.MustNewCode declaration
type CodeInfo struct {
	Name    string // variable name, e.g. ErrNotRunning
	Value   string // code string, e.g. client.not_running
	File    string
	Line    int
	Package string // Go package name of the declaring file
	UsedIn  []string
}

// Used reports whether the code is referenced outside its declaration.
func (c *CodeInfo) Used() bool {
	return len(c.UsedIn) > 0
}

// Violation is one finding that is not about code usage
type Violation struct {
	Kind    string
	File    string
	Line    int
	Message string
}
