package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gear6io/gpsd4go/pkg/errors"
)

const errorsImportPath = "github.com/gear6io/gpsd4go/pkg/errors"

// ErrorCodeChecker collects error code declarations and their uses across a
// tree and flags error construction that bypasses pkg/errors.
type ErrorCodeChecker struct {
	cfg        *Config
	fileSet    *token.FileSet
	codes      map[string]*CodeInfo // keyed by package + "." + variable name
	values     map[string][]*CodeInfo
	violations []Violation
	forbidden  []*regexp.Regexp
	files      []parsedFile
}

type parsedFile struct {
	path string
	file *ast.File
	test bool
}

func NewErrorCodeChecker(cfg *Config) *ErrorCodeChecker {
	c := &ErrorCodeChecker{
		cfg:     cfg,
		fileSet: token.NewFileSet(),
		codes:   make(map[string]*CodeInfo),
		values:  make(map[string][]*CodeInfo),
	}
	for _, p := range cfg.ForbiddenPatterns {
		c.forbidden = append(c.forbidden, regexp.MustCompile(p))
	}
	return c
}

func (c *ErrorCodeChecker) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, ex := range c.cfg.ExcludePaths {
		if strings.Contains(slashed, ex) {
			return true
		}
	}
	return false
}

// CheckDirectory parses every Go file under dir, then resolves usage.
func (c *ErrorCodeChecker) CheckDirectory(dir string) error {
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if c.excluded(path + "/") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		return c.CheckFile(path)
	})
	if err != nil {
		return err
	}

	c.resolveUsage()
	return nil
}

// CheckFile parses one file and records its declarations and violations.
func (c *ErrorCodeChecker) CheckFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.New(ErrParseFailed, "failed to read file", err).AddContext("file", path)
	}
	file, err := parser.ParseFile(c.fileSet, path, src, parser.ParseComments)
	if err != nil {
		return errors.New(ErrParseFailed, "failed to parse file", err).AddContext("file", path)
	}

	test := strings.HasSuffix(path, "_test.go")
	c.files = append(c.files, parsedFile{path: path, file: file, test: test})
	c.collectDeclarations(path, file)

	if !test {
		if c.cfg.CheckStdErrors {
			c.checkStdErrorsImport(path, file)
		}
		if c.cfg.CheckForbidden {
			c.checkForbidden(path, src)
		}
	}
	return nil
}

// collectDeclarations finds `Name = errors.MustNewCode("value")` specs.
func (c *ErrorCodeChecker) collectDeclarations(path string, file *ast.File) {
	alias := importName(file, errorsImportPath)
	if alias == "" {
		return
	}

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				value, ok := mustNewCodeArg(vs.Values[i], alias)
				if !ok {
					continue
				}
				c.addCode(path, file.Name.Name, name, value)
			}
		}
	}
}

func (c *ErrorCodeChecker) addCode(path, pkg string, name *ast.Ident, value string) {
	pos := c.fileSet.Position(name.Pos())
	info := &CodeInfo{
		Name:    name.Name,
		Value:   value,
		File:    path,
		Line:    pos.Line,
		Package: pkg,
	}
	c.codes[pkg+"."+name.Name] = info
	c.values[value] = append(c.values[value], info)

	if _, err := errors.NewCode(value); err != nil {
		c.violate("INVALID", path, pos.Line, err.Error())
		return
	}
	if c.cfg.CheckPrefix && pkg != "main" {
		if prefix := strings.SplitN(value, ".", 2)[0]; prefix != pkg {
			c.violate("PREFIX", path, pos.Line, "code "+strconv.Quote(value)+" does not start with package name "+pkg)
		}
	}
}

// resolveUsage marks a code used when its identifier appears anywhere other
// than its own declaration: same package by name, other packages by
// selector.
func (c *ErrorCodeChecker) resolveUsage() {
	for _, pf := range c.files {
		pkg := pf.file.Name.Name
		imported := importedPackages(pf.file)

		ast.Inspect(pf.file, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.SelectorExpr:
				id, ok := x.X.(*ast.Ident)
				if !ok {
					return true
				}
				if target, ok := imported[id.Name]; ok {
					c.markUsed(target+"."+x.Sel.Name, pf.path, x.Sel.Pos())
				}
				return false
			case *ast.Ident:
				c.markUsed(pkg+"."+x.Name, pf.path, x.Pos())
			}
			return true
		})
	}
}

func (c *ErrorCodeChecker) markUsed(key, path string, pos token.Pos) {
	info, ok := c.codes[key]
	if !ok {
		return
	}
	p := c.fileSet.Position(pos)
	if p.Filename == info.File && p.Line == info.Line {
		return
	}
	info.UsedIn = append(info.UsedIn, path+":"+strconv.Itoa(p.Line))
}

func (c *ErrorCodeChecker) checkStdErrorsImport(path string, file *ast.File) {
	for _, imp := range file.Imports {
		if imp.Path.Value == `"errors"` {
			line := c.fileSet.Position(imp.Pos()).Line
			c.violate("STDLIB", path, line, `imports the standard "errors" package, use pkg/errors codes`)
		}
	}
}

func (c *ErrorCodeChecker) checkForbidden(path string, src []byte) {
	for _, re := range c.forbidden {
		for _, m := range re.FindAllIndex(src, -1) {
			line := strings.Count(string(src[:m[0]]), "\n") + 1
			c.violate("FORBIDDEN", path, line, re.String())
		}
	}
}

func (c *ErrorCodeChecker) violate(kind, path string, line int, msg string) {
	c.violations = append(c.violations, Violation{Kind: kind, File: path, Line: line, Message: msg})
}

// mustNewCodeArg matches alias.MustNewCode("value").
func mustNewCodeArg(expr ast.Expr, alias string) (string, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "MustNewCode" {
		return "", false
	}
	if id, ok := sel.X.(*ast.Ident); !ok || id.Name != alias {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	value, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

// importName returns the local name of path in file, or "".
func importName(file *ast.File, path string) string {
	for _, imp := range file.Imports {
		if strings.Trim(imp.Path.Value, `"`) != path {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return pathBase(path)
	}
	return ""
}

// importedPackages maps local import names to the last path element, which
// is the package name for every package in this module.
func importedPackages(file *ast.File) map[string]string {
	out := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := pathBase(path)
		if imp.Name != nil {
			out[imp.Name.Name] = name
		} else {
			out[name] = name
		}
	}
	return out
}

func pathBase(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
