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

package pagetree

import (
	"fmt"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/pdfpages/pdf"
)

// Build adds a single-level page tree and a document catalog to doc.
//
// The page tree contains the given pages, in the given order.  The /Parent
// entry of every page is set to the new page tree node, replacing any
// previous value.  The trailer /Root entry of doc is set to the new catalog,
// and the reference of the catalog is returned.
func Build(doc *pdf.Document, pages []pdf.Reference) (pdf.Reference, error) {
	nodeRef := doc.Alloc()
	catalogRef := doc.Alloc()

	kids := make(pdf.Array, len(pages))
	for i, ref := range pages {
		page, ok := doc.Objects[ref].(pdf.Dict)
		if !ok {
			return 0, fmt.Errorf("%w: page %d (%s) not found",
				ErrInvalidPageTree, i+1, ref)
		}
		page = maps.Clone(page)
		page["Parent"] = nodeRef
		if _, ok := page["Type"]; !ok {
			page["Type"] = pdf.Name("Page")
		}
		doc.Put(ref, page)
		kids[i] = ref
	}

	doc.Put(nodeRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(kids)),
	})
	doc.Put(catalogRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": nodeRef,
	})
	doc.Trailer["Root"] = catalogRef

	return catalogRef, nil
}
