// If you are AI: This tool enforces the tree rules: the 300-line limit, AI headers, and function comments.

package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defaultMaxLines = 300

// main checks every Go file under the given directory.
func main() {
	maxLines := flag.Int("max-lines", defaultMaxLines, "Maximum lines per Go file")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-max-lines N] <directory>\n", os.Args[0])
		os.Exit(1)
	}

	failures, err := checkTree(flag.Arg(0), *maxLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error walking directory: %v\n", err)
		os.Exit(1)
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "Tree violations:\n")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		os.Exit(1)
	}
}

// checkTree walks root and returns one message per violation.
// Directories starting with "_" or "." are skipped, like the go tool does.
func checkTree(root string, maxLines int) ([]string, error) {
	var failures []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		failures = append(failures, checkFile(path, string(data), maxLines)...)
		return nil
	})
	return failures, err
}

// checkFile applies the line limit to every file, and the header and
// comment rules to non-test files.
func checkFile(path, content string, maxLines int) []string {
	var failures []string

	if lines := strings.Count(content, "\n"); lines > maxLines {
		failures = append(failures, fmt.Sprintf("%s: %d lines (max %d)", path, lines, maxLines))
	}

	// Test files may not need headers or comments
	if strings.HasSuffix(path, "_test.go") {
		return failures
	}

	if !strings.Contains(content, "If you are AI:") {
		failures = append(failures, fmt.Sprintf("%s: missing 'If you are AI:' header", path))
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		// Skip files that don't parse (might be generated)
		return failures
	}

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Doc == nil || len(fn.Doc.List) == 0 {
			pos := fset.Position(fn.Pos())
			failures = append(failures, fmt.Sprintf("%s:%d: function %s missing comment", path, pos.Line, fn.Name.Name))
		}
	}
	return failures
}
