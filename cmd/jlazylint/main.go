// jlazylint statically sanity-checks mangled symbol literals passed to
// CreateCall call sites in a Go package, the way a linter catches a typo
// in a format string: it can't know a build actually reaches one of
// these strings, but it can tell a syntactically malformed mangled
// symbol from a well-formed one before the JIT ever tries to demangle it
// at runtime. Grounded on gowrap/introspect.go's use of
// golang.org/x/tools/go/packages for source-level inspection.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"strconv"

	"golang.org/x/tools/go/packages"

	"github.com/chazu/jlazylink/pkg/mangle"
)

type finding struct {
	pos     token.Position
	symbol  string
	problem string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jlazylint <package-pattern> [more-patterns...]\n\n")
		fmt.Fprintf(os.Stderr, "Scans CreateCall(\"...\", ...) call sites for malformed mangled symbols.\n")
	}
	flag.Parse()
	patterns := flag.Args()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedSyntax | packages.NeedFiles}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jlazylint: load: %v\n", err)
		os.Exit(1)
	}

	var findings []finding
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors {
			fmt.Fprintf(os.Stderr, "jlazylint: %v\n", err)
		}
		for _, file := range pkg.Syntax {
			fset := pkg.Fset
			findings = append(findings, lintFile(fset, file)...)
		}
	}

	for _, f := range findings {
		fmt.Printf("%s: %s: %s\n", f.pos, f.symbol, f.problem)
	}
	if len(findings) > 0 {
		os.Exit(1)
	}
}

// lintFile walks file for CreateCall(symbolLiteral, ...) call sites and
// validates each literal symbol against pkg/mangle's grammars.
func lintFile(fset *token.FileSet, file *ast.File) []finding {
	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "CreateCall" {
			return true
		}
		if len(call.Args) == 0 {
			return true
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		symbol, err := strconv.Unquote(lit.Value)
		if err != nil {
			return true
		}
		if problem := checkSymbol(symbol); problem != "" {
			findings = append(findings, finding{
				pos:     fset.Position(lit.Pos()),
				symbol:  symbol,
				problem: problem,
			})
		}
		return true
	})
	return findings
}

// checkSymbol reports why symbol is malformed, or "" if it is either a
// well-formed mangled symbol (per pkg/mangle.Demangle) or a direct-call
// symbol (pkg/mangle.MangleDirectMethodCall's "Class.method:descriptor"
// shape, which Demangle intentionally does not parse - see pkg/mangle's
// package doc comment).
func checkSymbol(symbol string) string {
	if _, err := mangle.Demangle(symbol); err == nil {
		return ""
	}
	if looksLikeDirectCall(symbol) {
		return ""
	}
	return "does not match any known mangled-symbol grammar"
}

// looksLikeDirectCall applies the same shape direct-call symbols have
// ("binary/class/Name.method:(args)ret"): a ':' separating the
// class-qualified method name from a method descriptor.
func looksLikeDirectCall(symbol string) bool {
	for i := 0; i < len(symbol); i++ {
		if symbol[i] == ':' {
			return i > 0 && i < len(symbol)-1
		}
	}
	return false
}
