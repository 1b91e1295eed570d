// Copyright 2026 The SurgePlane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command report_gen merges `go test -json` output with the annotation
// headers on each test function and writes JSON and Markdown reports.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const modulePath = "github.com/swasthyasetu/surgeplane"

// Annotations are parsed from the doc comment above a test function.
type Annotations struct {
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
	Category   string `json:"category"`
}

// Result is one test merged with its annotations.
type Result struct {
	Name        string      `json:"name"`
	Package     string      `json:"package"`
	Status      string      `json:"status"`
	Elapsed     float64     `json:"elapsed_seconds"`
	Failure     string      `json:"failure_reason,omitempty"`
	Annotations Annotations `json:"annotations"`
}

// Summary is the top-level report.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []Result  `json:"results"`
}

type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

var headerFields = map[string]func(*Annotations, string){
	"TestPurpose:":  func(a *Annotations, v string) { a.Purpose = v },
	"Scope:":        func(a *Annotations, v string) { a.Scope = v },
	"Security:":     func(a *Annotations, v string) { a.Security = v },
	"Expected:":     func(a *Annotations, v string) { a.Expected = v },
	"Test Case ID:": func(a *Annotations, v string) { a.TestCaseID = v },
}

var categoryOrder = []string{
	"Tenant", "Identity", "Session", "Authorization", "Hospital", "Forecast",
	"HTTP API", "Storage", "Platform", "Other",
}

func main() {
	input := flag.String("input", "", "go test -json output file")
	outJSON := flag.String("out-json", "", "JSON report path")
	outMD := flag.String("out-md", "", "Markdown report path")
	root := flag.String("root", ".", "repository root to scan for annotations")
	title := flag.String("title", "Test Report", "report title")
	flag.Parse()

	if *input == "" || *outJSON == "" || *outMD == "" {
		fmt.Fprintln(os.Stderr, "usage: report_gen -input <file> -out-json <file> -out-md <file>")
		os.Exit(2)
	}

	meta, err := scanAnnotations(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan annotations: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open test output: %v\n", err)
		os.Exit(1)
	}
	results := mergeResults(f, meta)
	f.Close()

	summary := summarize(results, time.Now())
	if err := writeFile(*outJSON, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "write json: %v\n", err)
		os.Exit(1)
	}
	if err := writeFile(*outMD, func(w io.Writer) error {
		return renderMarkdown(w, summary, *title)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "write markdown: %v\n", err)
		os.Exit(1)
	}

	// Fail the CI step when any test failed.
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d tests failed\n", summary.Failed)
		os.Exit(1)
	}
}

// scanAnnotations walks root for _test.go files and indexes annotated tests
// by "<import path>.<TestName>".
func scanAnnotations(root string) (map[string]Annotations, error) {
	out := make(map[string]Annotations)
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "vendor", ".git", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, filepath.Dir(path))
		pkg := importPath(rel)

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !strings.HasPrefix(fn.Name.Name, "Test") || fn.Doc == nil {
				continue
			}
			a := parseDoc(fn.Doc)
			a.Category = category(pkg)
			out[pkg+"."+fn.Name.Name] = a
		}
		return nil
	})
	return out, err
}

func parseDoc(doc *ast.CommentGroup) Annotations {
	var a Annotations
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		for prefix, set := range headerFields {
			if v, ok := strings.CutPrefix(text, prefix); ok {
				set(&a, strings.TrimSpace(v))
				break
			}
		}
	}
	return a
}

func importPath(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return modulePath
	}
	return modulePath + "/" + rel
}

func category(pkg string) string {
	rel := strings.TrimPrefix(pkg, modulePath+"/")
	switch {
	case strings.HasPrefix(rel, "internal/tenant"):
		return "Tenant"
	case strings.HasPrefix(rel, "internal/identity"):
		return "Identity"
	case strings.HasPrefix(rel, "internal/session"):
		return "Session"
	case strings.HasPrefix(rel, "internal/authz"):
		return "Authorization"
	case strings.HasPrefix(rel, "internal/hospital"):
		return "Hospital"
	case strings.HasPrefix(rel, "internal/forecast"):
		return "Forecast"
	case strings.HasPrefix(rel, "internal/transport"):
		return "HTTP API"
	case strings.HasPrefix(rel, "internal/store"), strings.HasPrefix(rel, "internal/cache"):
		return "Storage"
	case strings.HasPrefix(rel, "internal/"):
		return "Platform"
	}
	return "Other"
}

// mergeResults folds test events into per-test results. Subtests inherit
// their parent's annotations.
func mergeResults(r io.Reader, meta map[string]Annotations) []Result {
	byKey := make(map[string]*Result)
	for key, a := range meta {
		pkg, name := splitKey(key)
		byKey[key] = &Result{Name: name, Package: pkg, Status: "not run", Annotations: a}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev testEvent
		if json.Unmarshal(scanner.Bytes(), &ev) != nil || ev.Test == "" {
			continue
		}

		key := ev.Package + "." + ev.Test
		res, ok := byKey[key]
		if !ok {
			parent, _, _ := strings.Cut(ev.Test, "/")
			a, found := meta[ev.Package+"."+parent]
			if !found {
				a = Annotations{Category: category(ev.Package)}
			}
			res = &Result{Name: ev.Test, Package: ev.Package, Annotations: a}
			byKey[key] = res
		}

		switch ev.Action {
		case "pass", "fail":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Status = "skip"
		case "output":
			if res.Status != "pass" && res.Status != "skip" {
				res.Failure += ev.Output
			}
		}
	}

	out := make([]Result, 0, len(byKey))
	for _, r := range byKey {
		if r.Status != "fail" {
			r.Failure = ""
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func splitKey(key string) (pkg, name string) {
	i := strings.LastIndex(key, ".")
	return key[:i], key[i+1:]
}

func summarize(results []Result, now time.Time) Summary {
	s := Summary{GeneratedAt: now, Results: results}
	for _, r := range results {
		s.Total++
		switch r.Status {
		case "pass":
			s.Passed++
		case "fail":
			s.Failed++
		case "skip":
			s.Skipped++
		}
	}
	return s
}

func renderMarkdown(w io.Writer, s Summary, title string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# SurgePlane %s\n\n", title)
	fmt.Fprintf(&sb, "**Generated:** %s  \n", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	status := "PASSED"
	if s.Failed > 0 {
		status = "FAILED"
	}
	fmt.Fprintf(&sb, "**Status:** %s\n\n", status)

	rate := 0.0
	if s.Total > 0 {
		rate = float64(s.Passed) / float64(s.Total) * 100
	}
	sb.WriteString("| Total | Passed | Failed | Skipped | Pass Rate |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %.1f%% |\n\n", s.Total, s.Passed, s.Failed, s.Skipped, rate)

	byCat := make(map[string][]Result)
	for _, r := range s.Results {
		byCat[r.Annotations.Category] = append(byCat[r.Annotations.Category], r)
	}
	for _, cat := range categoryOrder {
		tests := byCat[cat]
		if len(tests) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n| ID | Test | Status | Purpose | Security |\n|---|---|---|---|---|\n", cat)
		for _, t := range tests {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				t.Annotations.TestCaseID, t.Name, t.Status, t.Annotations.Purpose, t.Annotations.Security)
		}
		sb.WriteString("\n")
	}

	if s.Failed > 0 {
		sb.WriteString("## Failures\n\n")
		for _, t := range s.Results {
			if t.Status == "fail" {
				fmt.Fprintf(&sb, "### %s (%s)\n\n```\n%s\n```\n\n", t.Name, t.Package, t.Failure)
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
