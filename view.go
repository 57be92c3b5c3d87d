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
	"golang.org/x/exp/maps"

	"seehuhn.de/go/pdfpages/pagetree"
	"seehuhn.de/go/pdfpages/pdf"
)

// pageView presents a document restricted to a selection of pages.
//
// Selected pages have their inherited attributes merged in, and their
// /Parent entry removed.  All other pages, the page tree nodes and the
// document catalog are hidden.  References to hidden objects appear
// unresolved to the collector, and are replaced by null in the output.
type pageView struct {
	doc    *pdf.Document
	pages  map[pdf.Reference]pdf.Object
	hidden map[pdf.Reference]bool
}

func newPageView(in *Document, selected []pagetree.Page) *pageView {
	v := &pageView{
		doc:    in.PDF,
		pages:  make(map[pdf.Reference]pdf.Object, len(selected)),
		hidden: make(map[pdf.Reference]bool),
	}

	for _, ref := range in.Pages.Nodes {
		v.hidden[ref] = true
	}
	for _, p := range in.Pages.Pages {
		v.hidden[p.Ref] = true
	}
	if root, ok := in.PDF.Trailer["Root"].(pdf.Reference); ok {
		v.hidden[root] = true
	}

	for _, p := range selected {
		dict, _ := in.PDF.Objects[p.Ref].(pdf.Dict)
		page := maps.Clone(dict)
		if page == nil {
			page = pdf.Dict{}
		}
		delete(page, "Parent")
		for key, val := range p.Inherited {
			if _, ok := page[key]; !ok {
				page[key] = val
			}
		}
		v.pages[p.Ref] = page
	}

	return v
}

// Get implements the [collect.Getter] interface.
func (v *pageView) Get(ref pdf.Reference) (pdf.Object, bool) {
	if page, ok := v.pages[ref]; ok {
		return page, true
	}
	if v.hidden[ref] {
		return nil, false
	}
	return v.doc.Get(ref)
}

// omitted returns the hidden objects among the given unresolved references.
// The remaining references point to objects missing from the document.
func (v *pageView) omitted(unresolved []pdf.Reference) (omit map[pdf.Reference]bool, missing int) {
	omit = make(map[pdf.Reference]bool)
	for _, ref := range unresolved {
		if v.hidden[ref] {
			omit[ref] = true
		} else {
			missing++
		}
	}
	return omit, missing
}
