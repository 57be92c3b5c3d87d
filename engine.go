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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"seehuhn.de/go/pdfpages/collect"
	"seehuhn.de/go/pdfpages/internal/ctxlog"
	"seehuhn.de/go/pdfpages/pagerange"
	"seehuhn.de/go/pdfpages/pagetree"
	"seehuhn.de/go/pdfpages/pdf"
	"seehuhn.de/go/pdfpages/remap"
)

// Engine extracts, deletes, splits and merges pages of PDF files.
//
// The zero value is ready to use.  An Engine holds no state between calls,
// and can be used concurrently.
type Engine struct {
	// Dangling determines how references to objects which are not copied
	// into the output are treated.  The same policy is used for all
	// operations.
	Dangling remap.Policy
}

// WithLogger returns a context which makes the Engine log to logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return ctxlog.WithLogger(ctx, logger)
}

// Document is an input file, together with its page index.
type Document struct {
	Path  string
	PDF   *pdf.Document
	Pages *pagetree.Index
}

// Part selects pages from one input document.
type Part struct {
	Doc *Document

	// Pages lists 1-based page numbers, in output order.
	Pages []int
}

// Load reads a PDF file and determines its pages.
func (e *Engine) Load(ctx context.Context, path string) (*Document, error) {
	return e.load(ctx, "load", path)
}

func (e *Engine) load(ctx context.Context, op, path string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Op: op, Path: path, Kind: ErrInputNotFound}
	} else if err != nil {
		return nil, &Error{Op: op, Path: path, Kind: ErrLoadFailed, Err: err}
	}

	doc, err := pdf.Load(path)
	if err != nil {
		return nil, &Error{Op: op, Path: path, Kind: ErrLoadFailed, Err: err}
	}
	idx, err := pagetree.Walk(doc)
	if err != nil {
		return nil, &Error{Op: op, Path: path, Kind: ErrStructure, Err: err}
	}

	logger.Debug("loaded document",
		"file", path,
		"version", doc.Version.String(),
		"objects", len(doc.Objects),
		"pages", idx.Len())
	if len(idx.Skipped) > 0 {
		logger.Warn("page tree refers to missing objects",
			"file", path,
			"count", len(idx.Skipped))
	}

	return &Document{Path: path, PDF: doc, Pages: idx}, nil
}

// PageCount returns the number of pages of a PDF file.  The pages are
// counted by traversing the page tree.
func (e *Engine) PageCount(ctx context.Context, path string) (int, error) {
	in, err := e.load(ctx, "count", path)
	if err != nil {
		return 0, err
	}
	return in.Pages.Len(), nil
}

// Extract creates a new document, containing the selected pages of all
// parts, in order.  Each page is copied together with all objects it
// needs.  The output has a single-level page tree.
func (e *Engine) Extract(ctx context.Context, parts ...Part) (*pdf.Document, error) {
	return e.extract(ctx, "extract", "", parts)
}

func (e *Engine) extract(ctx context.Context, op, token string, parts []Part) (*pdf.Document, error) {
	logger := ctxlog.FromContext(ctx)

	version := pdf.V1_0
	units := make([]remap.Unit, len(parts))
	pageRefs := make([][]pdf.Reference, len(parts))
	for i, part := range parts {
		in := part.Doc
		version = max(version, in.PDF.Version)

		selected := make([]pagetree.Page, 0, len(part.Pages))
		roots := make([]pdf.Reference, 0, len(part.Pages))
		seen := make(map[int]bool, len(part.Pages))
		for _, pageNo := range part.Pages {
			if seen[pageNo] {
				return nil, &Error{
					Op: op, Path: in.Path, Token: token, Page: pageNo,
					Kind: ErrInvalidSelection,
					Err:  errors.New("page selected twice"),
				}
			}
			seen[pageNo] = true

			p, ok := in.Pages.Page(pageNo)
			if !ok {
				return nil, &Error{
					Op: op, Path: in.Path, Token: token, Page: pageNo,
					Kind: ErrPageNotFound,
					Err:  fmt.Errorf("document has %d pages", in.Pages.Len()),
				}
			}
			selected = append(selected, p)
			roots = append(roots, p.Ref)
		}

		view := newPageView(in, selected)
		closure := collect.Collect(view, roots)
		omit, missing := view.omitted(closure.Unresolved)
		if missing > 0 {
			logger.Warn("unresolved references",
				"file", in.Path,
				"count", missing,
				"policy", e.Dangling.String())
		}
		logger.Debug("collected objects",
			"file", in.Path,
			"pages", len(roots),
			"objects", len(closure.Objects),
			"omitted", len(omit))

		units[i] = remap.Unit{Objects: closure.Objects, Omit: omit}
		pageRefs[i] = roots
	}

	out, idMaps := remap.Remap(version, e.Dangling, units...)

	var pages []pdf.Reference
	for i, refs := range pageRefs {
		newRefs, err := idMaps[i].Pages(refs)
		if err != nil {
			return nil, &Error{Op: op, Path: parts[i].Doc.Path, Token: token,
				Kind: ErrStructure, Err: err}
		}
		pages = append(pages, newRefs...)
	}
	_, err := pagetree.Build(out, pages)
	if err != nil {
		return nil, buildError(op, token, parts, err)
	}

	return out, nil
}

// buildError reports a failure to assemble the output page tree.  The
// error names the first input file.
func buildError(op, token string, parts []Part, err error) *Error {
	var path string
	if len(parts) > 0 && parts[0].Doc != nil {
		path = parts[0].Doc.Path
	}
	return &Error{Op: op, Path: path, Token: token, Kind: ErrStructure, Err: err}
}

func (e *Engine) save(ctx context.Context, op string, doc *pdf.Document, path string) error {
	err := doc.Save(path)
	if err != nil {
		return &Error{Op: op, Path: path, Kind: ErrSaveFailed, Err: err}
	}
	ctxlog.FromContext(ctx).Info("wrote output file",
		"file", path,
		"pages", pageCount(doc),
		"objects", len(doc.Objects))
	return nil
}

func pageCount(doc *pdf.Document) int {
	_, catalog, err := doc.Catalog()
	if err != nil {
		return 0
	}
	root, _ := doc.Resolve(catalog["Pages"]).(pdf.Dict)
	count, _ := root["Count"].(pdf.Integer)
	return int(count)
}

// Split writes one output file per page selection into outDir.
//
// Each selection is either a page number "N" or a range "N-M".  The output
// files are named "page_N.pdf" and "pages_N-M.pdf", respectively.  The
// selections are processed in order.  If a selection is invalid, or refers
// to pages which do not exist, processing stops.  Files written for
// earlier selections are kept, and their names are returned together with
// the error.
func (e *Engine) Split(ctx context.Context, path, outDir string, selections []string) ([]string, error) {
	const op = "split"

	in, err := e.load(ctx, op, path)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, token := range selections {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		r, err := pagerange.Parse(token)
		if err != nil {
			return written, &Error{Op: op, Path: path, Token: token,
				Kind: ErrInvalidSelection, Err: err}
		}
		if n := in.Pages.Len(); r.Last > n {
			return written, &Error{
				Op: op, Path: path, Token: token, Page: max(r.First, n+1),
				Kind: ErrPageNotFound,
				Err:  fmt.Errorf("document has %d pages", n),
			}
		}

		doc, err := e.extract(ctx, op, token, []Part{{Doc: in, Pages: r.Pages()}})
		if err != nil {
			return written, err
		}
		outPath := filepath.Join(outDir, r.FileName())
		err = e.save(ctx, op, doc, outPath)
		if err != nil {
			return written, err
		}
		written = append(written, outPath)
	}
	return written, nil
}

// Delete writes a copy of the file without the given pages into outDir.
// The name of the output file is the input file name with
// "_pages_removed" added before the extension.  The remaining pages keep
// their original order.
//
// Deleting all pages is an error.  If pages is empty, all pages are
// copied.
func (e *Engine) Delete(ctx context.Context, path, outDir string, pages []int) (string, error) {
	const op = "delete"

	in, err := e.load(ctx, op, path)
	if err != nil {
		return "", err
	}

	n := in.Pages.Len()
	remove := make(map[int]bool, len(pages))
	for _, pageNo := range pages {
		if pageNo < 1 {
			return "", &Error{Op: op, Path: path, Kind: ErrInvalidSelection,
				Err: fmt.Errorf("invalid page number %d", pageNo)}
		}
		if pageNo > n {
			return "", &Error{Op: op, Path: path, Page: pageNo,
				Kind: ErrPageNotFound, Err: fmt.Errorf("document has %d pages", n)}
		}
		remove[pageNo] = true
	}

	keep := make([]int, 0, n-len(remove))
	for pageNo := 1; pageNo <= n; pageNo++ {
		if !remove[pageNo] {
			keep = append(keep, pageNo)
		}
	}
	if len(keep) == 0 && n > 0 {
		return "", &Error{Op: op, Path: path, Kind: ErrInvalidSelection,
			Err: errors.New("cannot delete all pages")}
	}

	doc, err := e.extract(ctx, op, "", []Part{{Doc: in, Pages: keep}})
	if err != nil {
		return "", err
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(outDir, stem+"_pages_removed.pdf")
	err = e.save(ctx, op, doc, outPath)
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// Merge concatenates the pages of all input files and writes the result
// to outPath.  At least two input files are required.
func (e *Engine) Merge(ctx context.Context, paths []string, outPath string) error {
	const op = "merge"

	if len(paths) < 2 {
		return &Error{Op: op, Kind: ErrInsufficientInputs,
			Err: fmt.Errorf("got %d", len(paths))}
	}

	parts := make([]Part, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		in, err := e.load(ctx, op, path)
		if err != nil {
			return err
		}
		all := make([]int, in.Pages.Len())
		for i := range all {
			all[i] = i + 1
		}
		parts = append(parts, Part{Doc: in, Pages: all})
	}

	doc, err := e.extract(ctx, op, "", parts)
	if err != nil {
		return err
	}
	return e.save(ctx, op, doc, outPath)
}
