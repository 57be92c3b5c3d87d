// seehuhn.de/go/pdfpages - split, merge and delete pages of PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdfpages

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfpages/collect"
	"seehuhn.de/go/pdfpages/internal/testdoc"
	"seehuhn.de/go/pdfpages/pagetree"
	"seehuhn.de/go/pdfpages/pdf"
	"seehuhn.de/go/pdfpages/remap"
)

func writeDoc(t *testing.T, dir, name string, doc *pdf.Document) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := doc.Save(path)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

// readLabels loads a PDF file and returns the labels of all pages.
func readLabels(t *testing.T, path string) []string {
	t.Helper()
	doc, err := pdf.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return labels(t, doc)
}

func labels(t *testing.T, doc *pdf.Document) []string {
	t.Helper()
	idx, err := pagetree.Walk(doc)
	if err != nil {
		t.Fatal(err)
	}
	res := []string{}
	for _, p := range idx.Pages {
		res = append(res, testdoc.Label(doc, p.Ref))
	}
	return res
}

// checkSelfContained verifies that every reference reachable from the
// trailer of doc can be resolved.
func checkSelfContained(t *testing.T, doc *pdf.Document) {
	t.Helper()
	var roots []pdf.Reference
	for ref := range collect.Refs(doc.Trailer) {
		roots = append(roots, ref)
	}
	c := collect.Collect(doc, roots)
	if len(c.Unresolved) > 0 {
		t.Errorf("unresolved references: %v", c.Unresolved)
	}
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(5))

	e := &Engine{}
	n, err := e.PageCount(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("expected 5 pages, got %d", n)
	}
}

func TestPageCountErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	e := &Engine{}

	missing := filepath.Join(dir, "missing.pdf")
	_, err := e.PageCount(ctx, missing)
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing file: got %v", err)
	}
	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Path != missing {
		t.Errorf("error does not name the file: %v", err)
	}

	garbage := filepath.Join(dir, "garbage.pdf")
	err = os.WriteFile(garbage, []byte("this is not a PDF file"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.PageCount(ctx, garbage)
	if !errors.Is(err, ErrLoadFailed) {
		t.Errorf("garbage file: got %v", err)
	}

	doc := testdoc.New(3)
	_, catalog, _ := doc.Catalog()
	catalog["Pages"] = testdoc.Missing
	broken := writeDoc(t, dir, "broken.pdf", doc)
	_, err = e.PageCount(ctx, broken)
	if !errors.Is(err, ErrStructure) || !errors.Is(err, pagetree.ErrInvalidPageTree) {
		t.Errorf("broken page tree: got %v", err)
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "five.pdf", testdoc.New(5))
	outDir := filepath.Join(dir, "out")

	e := &Engine{}
	out, err := e.Delete(context.Background(), path, outDir, []int{2})
	if err != nil {
		t.Fatal(err)
	}
	if out != filepath.Join(outDir, "five_pages_removed.pdf") {
		t.Errorf("wrong output file %q", out)
	}
	want := []string{"P1", "P3", "P4", "P5"}
	if d := cmp.Diff(want, readLabels(t, out)); d != "" {
		t.Error(d)
	}
}

func TestDeleteNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(3))

	e := &Engine{}
	out, err := e.Delete(context.Background(), path, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"P1", "P2", "P3"}, readLabels(t, out)); d != "" {
		t.Error(d)
	}
}

func TestDeleteErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(3))
	outDir := filepath.Join(dir, "out")
	ctx := context.Background()
	e := &Engine{}

	_, err := e.Delete(ctx, path, outDir, []int{1, 2, 3, 2})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("delete all: got %v", err)
	}

	_, err = e.Delete(ctx, path, outDir, []int{9})
	var engineErr *Error
	if !errors.Is(err, ErrPageNotFound) || !errors.As(err, &engineErr) || engineErr.Page != 9 {
		t.Errorf("delete missing page: got %v", err)
	}

	_, err = e.Delete(ctx, path, outDir, []int{0})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("delete page 0: got %v", err)
	}

	if _, err := os.Stat(outDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output written despite errors")
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := testdoc.Make(3, &testdoc.Options{Fanout: 2, Prefix: "A", Version: pdf.V1_4})
	b := testdoc.Make(2, &testdoc.Options{Prefix: "B", Version: pdf.V1_7})
	pathA := writeDoc(t, dir, "a.pdf", a)
	pathB := writeDoc(t, dir, "b.pdf", b)
	out := filepath.Join(dir, "merged", "ab.pdf")

	e := &Engine{}
	err := e.Merge(context.Background(), []string{pathA, pathB}, out)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := pdf.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A1", "A2", "A3", "B1", "B2"}
	if d := cmp.Diff(want, labels(t, doc)); d != "" {
		t.Error(d)
	}
	if doc.Version != pdf.V1_7 {
		t.Errorf("wrong version %s", doc.Version)
	}
	checkSelfContained(t, doc)
}

func TestMergeSameFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(2))
	out := filepath.Join(dir, "twice.pdf")

	e := &Engine{}
	err := e.Merge(context.Background(), []string{path, path}, out)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"P1", "P2", "P1", "P2"}, readLabels(t, out)); d != "" {
		t.Error(d)
	}
}

func TestMergeErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(2))
	out := filepath.Join(dir, "out.pdf")
	ctx := context.Background()
	e := &Engine{}

	err := e.Merge(ctx, []string{path}, out)
	if !errors.Is(err, ErrInsufficientInputs) {
		t.Errorf("single input: got %v", err)
	}

	missing := filepath.Join(dir, "missing.pdf")
	err = e.Merge(ctx, []string{path, missing}, out)
	if !errors.Is(err, ErrInputNotFound) || !strings.Contains(err.Error(), missing) {
		t.Errorf("missing input: got %v", err)
	}

	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output written despite errors")
	}
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(5))
	outDir := filepath.Join(dir, "parts")

	e := &Engine{}
	written, err := e.Split(context.Background(), path, outDir, []string{"1", "3-4", "0-2", "5"})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}
	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Token != "0-2" {
		t.Errorf("error does not name the selection: %v", err)
	}

	want := []string{
		filepath.Join(outDir, "page_1.pdf"),
		filepath.Join(outDir, "pages_3-4.pdf"),
	}
	if d := cmp.Diff(want, written); d != "" {
		t.Fatal(d)
	}
	if d := cmp.Diff([]string{"P1"}, readLabels(t, written[0])); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff([]string{"P3", "P4"}, readLabels(t, written[1])); d != "" {
		t.Error(d)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 output files, got %d", len(entries))
	}
}

func TestSplitPageNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(3))

	e := &Engine{}
	written, err := e.Split(context.Background(), path, dir, []string{"2-2", "2-7"})
	var engineErr *Error
	if !errors.Is(err, ErrPageNotFound) || !errors.As(err, &engineErr) || engineErr.Page != 4 {
		t.Errorf("expected missing page 4, got %v", err)
	}
	if d := cmp.Diff([]string{filepath.Join(dir, "page_2.pdf")}, written); d != "" {
		t.Error(d)
	}
}

func TestSplitSmallOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "in.pdf", testdoc.New(10))

	e := &Engine{}
	written, err := e.Split(context.Background(), path, dir, []string{"7"})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := pdf.Load(written[0])
	if err != nil {
		t.Fatal(err)
	}

	// page, contents, font, page tree root, catalog
	if len(doc.Objects) != 5 {
		t.Errorf("expected 5 objects, got %d", len(doc.Objects))
	}
	checkSelfContained(t, doc)

	// inherited attributes are copied to the page
	idx, err := pagetree.Walk(doc)
	if err != nil {
		t.Fatal(err)
	}
	page := doc.Objects[idx.Pages[0].Ref].(pdf.Dict)
	if _, ok := page["MediaBox"]; !ok {
		t.Error("missing /MediaBox")
	}
	if _, ok := page["Resources"]; !ok {
		t.Error("missing /Resources")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{1, 4, 17} {
		src := testdoc.New(n)
		srcIdx, err := pagetree.Walk(src)
		if err != nil {
			t.Fatal(err)
		}
		in := &Document{Path: "mem.pdf", PDF: src, Pages: srcIdx}
		all := make([]int, n)
		for i := range all {
			all[i] = i + 1
		}

		e := &Engine{}
		out, err := e.Extract(context.Background(), Part{Doc: in, Pages: all})
		if err != nil {
			t.Fatal(err)
		}
		if got := labels(t, out); len(got) != n {
			t.Errorf("%d pages: got %d", n, len(got))
		}
		checkSelfContained(t, out)
	}
}

func TestExtractReorder(t *testing.T) {
	src := testdoc.New(4)
	idx, err := pagetree.Walk(src)
	if err != nil {
		t.Fatal(err)
	}
	in := &Document{Path: "mem.pdf", PDF: src, Pages: idx}

	e := &Engine{}
	out, err := e.Extract(context.Background(), Part{Doc: in, Pages: []int{4, 1, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"P4", "P1", "P3"}, labels(t, out)); d != "" {
		t.Error(d)
	}

	_, err = e.Extract(context.Background(), Part{Doc: in, Pages: []int{1, 1}})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("duplicate page: got %v", err)
	}
}

func TestDanglingPolicy(t *testing.T) {
	src := testdoc.Make(2, &testdoc.Options{Prefix: "P", Dangling: true})
	idx, err := pagetree.Walk(src)
	if err != nil {
		t.Fatal(err)
	}
	in := &Document{Path: "mem.pdf", PDF: src, Pages: idx}

	cases := []struct {
		policy remap.Policy
		annots pdf.Object
	}{
		{remap.Keep, pdf.Array{testdoc.Missing}},
		{remap.Null, pdf.Array{nil}},
	}
	for _, test := range cases {
		logBuf := &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(logBuf, nil))
		ctx := WithLogger(context.Background(), logger)

		e := &Engine{Dangling: test.policy}
		out, err := e.Extract(ctx, Part{Doc: in, Pages: []int{2}})
		if err != nil {
			t.Fatal(err)
		}
		outIdx, err := pagetree.Walk(out)
		if err != nil {
			t.Fatal(err)
		}
		page := out.Objects[outIdx.Pages[0].Ref].(pdf.Dict)
		if d := cmp.Diff(test.annots, page["Annots"]); d != "" {
			t.Errorf("%s: %s", test.policy, d)
		}
		if !strings.Contains(logBuf.String(), "unresolved references") {
			t.Errorf("%s: dangling reference not logged", test.policy)
		}
	}
}

func TestCrossPageLink(t *testing.T) {
	src := testdoc.New(3)
	idx, err := pagetree.Walk(src)
	if err != nil {
		t.Fatal(err)
	}
	page1 := src.Objects[idx.Pages[0].Ref].(pdf.Dict)
	page2 := idx.Pages[1].Ref
	linkRef := src.Alloc()
	src.Put(linkRef, pdf.Dict{
		"Type":    pdf.Name("Annot"),
		"Subtype": pdf.Name("Link"),
		"Rect":    pdf.Array{pdf.Integer(72), pdf.Integer(700), pdf.Integer(144), pdf.Integer(720)},
		"Dest":    pdf.Array{page2, pdf.Name("Fit")},
	})
	page1["Annots"] = pdf.Array{linkRef}
	in := &Document{Path: "mem.pdf", PDF: src, Pages: idx}

	for _, policy := range []remap.Policy{remap.Keep, remap.Null} {
		logBuf := &bytes.Buffer{}
		ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(logBuf, nil)))

		e := &Engine{Dangling: policy}
		out, err := e.Extract(ctx, Part{Doc: in, Pages: []int{1}})
		if err != nil {
			t.Fatal(err)
		}
		outIdx, err := pagetree.Walk(out)
		if err != nil {
			t.Fatal(err)
		}
		page := out.Objects[outIdx.Pages[0].Ref].(pdf.Dict)
		annots := out.Resolve(page["Annots"]).(pdf.Array)
		link := out.Resolve(annots[0]).(pdf.Dict)
		if d := cmp.Diff(pdf.Array{nil, pdf.Name("Fit")}, link["Dest"]); d != "" {
			t.Errorf("%s: %s", policy, d)
		}
		if strings.Contains(logBuf.String(), "unresolved references") {
			t.Errorf("%s: link to an unselected page reported as unresolved", policy)
		}
		checkSelfContained(t, out)
	}
}

func TestBuildErrorPath(t *testing.T) {
	parts := []Part{{Doc: &Document{Path: "a.pdf"}}, {Doc: &Document{Path: "b.pdf"}}}
	err := buildError("merge", "", parts, pagetree.ErrInvalidPageTree)
	if err.Path != "a.pdf" {
		t.Errorf("wrong path %q", err.Path)
	}
	if !errors.Is(err, ErrStructure) || !errors.Is(err, pagetree.ErrInvalidPageTree) {
		t.Errorf("wrong error chain: %v", err)
	}
	if got := buildError("extract", "", nil, pagetree.ErrInvalidPageTree); got.Path != "" {
		t.Errorf("unexpected path %q", got.Path)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{
			&Error{Op: "count", Path: "a.pdf", Kind: ErrInputNotFound},
			"count a.pdf: input file not found",
		},
		{
			&Error{Op: "split", Path: "a.pdf", Token: "2-9", Page: 6,
				Kind: ErrPageNotFound, Err: errors.New("document has 5 pages")},
			`split a.pdf: selection "2-9": page 6: page not found: document has 5 pages`,
		},
		{
			&Error{Op: "merge", Kind: ErrInsufficientInputs, Err: errors.New("got 1")},
			"merge: at least two input files are required: got 1",
		},
	}
	for _, test := range cases {
		if got := test.err.Error(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
