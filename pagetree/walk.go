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

// Package pagetree reads and writes PDF page trees.
//
// [Walk] turns the page tree of a document into a flat list of pages, in
// page order.  [Build] creates a new, single-level page tree together with
// the document catalog.
package pagetree

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpages/pdf"
)

// Inheritable lists the page attributes which can be inherited from
// ancestor nodes of the page tree.
var Inheritable = []pdf.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// Page describes one page of a document.
type Page struct {
	// Ref is the reference of the page object.
	Ref pdf.Reference

	// Inherited contains the inheritable attributes which apply to this
	// page, but which are stored on an ancestor node in the page tree.
	// This is nil if the page does not inherit any attributes.
	Inherited pdf.Dict
}

// Index is the list of pages of a document, in page order.
type Index struct {
	// Pages holds the pages of the document.  Page n (1-based) is
	// Pages[n-1].
	Pages []Page

	// Nodes lists the intermediate nodes of the page tree, in the order
	// they were visited.
	Nodes []pdf.Reference

	// Skipped lists kids which refer to objects not present in the
	// document.
	Skipped []pdf.Reference
}

// Len returns the number of pages.
func (idx *Index) Len() int {
	return len(idx.Pages)
}

// Page returns the page with the given 1-based page number.
func (idx *Index) Page(pageNo int) (Page, bool) {
	if pageNo < 1 || pageNo > len(idx.Pages) {
		return Page{}, false
	}
	return idx.Pages[pageNo-1], true
}

// Refs returns the references of all pages, in page order.
func (idx *Index) Refs() []pdf.Reference {
	res := make([]pdf.Reference, len(idx.Pages))
	for i, p := range idx.Pages {
		res[i] = p.Ref
	}
	return res
}

// Walk traverses the page tree of doc, starting at the /Pages entry of the
// document catalog.  Kids are visited depth-first, from left to right.
//
// The page count is found by traversal; /Count entries are ignored.
// If the catalog or the root of the page tree is missing, or if the tree
// contains loops, an error wrapping [ErrInvalidPageTree] is returned.
func Walk(doc *pdf.Document) (*Index, error) {
	_, catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageTree, err)
	}
	root, ok := catalog["Pages"].(pdf.Reference)
	if !ok {
		return nil, fmt.Errorf("%w: missing /Pages in catalog", ErrInvalidPageTree)
	}
	if _, ok := doc.Objects[root].(pdf.Dict); !ok {
		return nil, fmt.Errorf("%w: page tree root %s not found", ErrInvalidPageTree, root)
	}

	type todoItem struct {
		ref       pdf.Reference
		inherited pdf.Dict
	}

	idx := &Index{}
	todo := []todoItem{{ref: root}}
	seen := make(map[pdf.Reference]bool)
	for len(todo) > 0 {
		k := len(todo) - 1
		item := todo[k]
		todo = todo[:k]

		if seen[item.ref] {
			return nil, fmt.Errorf("%w: %s visited twice", ErrInvalidPageTree, item.ref)
		}
		seen[item.ref] = true

		obj, present := doc.Get(item.ref)
		if !present || obj == nil {
			idx.Skipped = append(idx.Skipped, item.ref)
			continue
		}
		node, ok := obj.(pdf.Dict)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a dictionary",
				ErrInvalidPageTree, item.ref)
		}

		if !isPageTreeNode(node) {
			var inherited pdf.Dict
			for key, val := range item.inherited {
				if _, ok := node[key]; ok {
					continue
				}
				if inherited == nil {
					inherited = pdf.Dict{}
				}
				inherited[key] = val
			}
			idx.Pages = append(idx.Pages, Page{Ref: item.ref, Inherited: inherited})
			continue
		}

		idx.Nodes = append(idx.Nodes, item.ref)

		inherited := item.inherited
		cloned := false
		for _, key := range Inheritable {
			val, ok := node[key]
			if !ok {
				continue
			}
			if !cloned {
				inherited = maps.Clone(item.inherited)
				if inherited == nil {
					inherited = pdf.Dict{}
				}
				cloned = true
			}
			inherited[key] = val
		}

		var kids pdf.Array
		switch x := doc.Resolve(node["Kids"]).(type) {
		case pdf.Array:
			kids = x
		case nil:
			// empty node
		default:
			return nil, fmt.Errorf("%w: invalid /Kids in %s", ErrInvalidPageTree, item.ref)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			switch kid := kids[i].(type) {
			case pdf.Reference:
				todo = append(todo, todoItem{ref: kid, inherited: inherited})
			case nil:
				// null kids are ignored
			default:
				return nil, fmt.Errorf("%w: invalid kid %s in %s",
					ErrInvalidPageTree, pdf.Format(kid), item.ref)
			}
		}
	}

	return idx, nil
}

func isPageTreeNode(dict pdf.Dict) bool {
	switch dict["Type"] {
	case pdf.Name("Pages"):
		return true
	case pdf.Name("Page"):
		return false
	}
	_, hasKids := dict["Kids"]
	return hasKids
}

// MediaBox returns the media box of the page, taking inherited values
// into account.
func (p Page) MediaBox(doc *pdf.Document) (rect.Rect, error) {
	page, err := doc.GetDict(p.Ref)
	if err != nil {
		return rect.Rect{}, err
	}
	obj, ok := page["MediaBox"]
	if !ok {
		obj = p.Inherited["MediaBox"]
	}

	a, ok := doc.Resolve(obj).(pdf.Array)
	if !ok || len(a) != 4 {
		return rect.Rect{}, errInvalidMediaBox
	}
	var x [4]float64
	for i, v := range a {
		switch v := doc.Resolve(v).(type) {
		case pdf.Integer:
			x[i] = float64(v)
		case pdf.Real:
			x[i] = float64(v)
		default:
			return rect.Rect{}, errInvalidMediaBox
		}
	}
	return rect.Rect{
		LLx: min(x[0], x[2]),
		LLy: min(x[1], x[3]),
		URx: max(x[0], x[2]),
		URy: max(x[1], x[3]),
	}, nil
}

var (
	// ErrInvalidPageTree indicates a missing or malformed page tree.
	ErrInvalidPageTree = errors.New("invalid page tree")

	errInvalidMediaBox = errors.New("invalid /MediaBox")
)
