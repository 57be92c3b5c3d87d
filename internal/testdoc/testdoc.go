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

// Package testdoc builds synthetic PDF documents for use in tests.
package testdoc

import (
	"fmt"
	"strings"

	"seehuhn.de/go/pdfpages/pdf"
)

// Options control the shape of generated documents.
type Options struct {
	// Fanout is the maximal number of kids per page tree node.
	// Values below 2 result in a flat page tree.
	Fanout int

	// Prefix is prepended to the page labels.
	Prefix string

	// Dangling adds a reference to a missing object to every page.
	Dangling bool

	// Version is the PDF version of the document.  The default is
	// PDF-1.7.
	Version pdf.Version
}

// Missing is the reference used for dangling references.
var Missing = pdf.NewReference(999999, 0)

// New returns a document with n pages, arranged in a three-level page tree.
// The content stream of page i contains the label "P<i>".
func New(n int) *pdf.Document {
	return Make(n, &Options{Fanout: 3, Prefix: "P"})
}

// Make returns a document with n pages.
//
// The media box and the resources are stored on the root of the page tree
// and are inherited by all pages.  Every page shares the same font
// object, and refers to its own content stream.
func Make(n int, opt *Options) *pdf.Document {
	if opt == nil {
		opt = &Options{}
	}
	v := opt.Version
	if v == 0 {
		v = pdf.V1_7
	}
	doc := pdf.NewDocument(v)

	catalogRef := doc.Alloc()
	rootRef := doc.Alloc()
	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
	})

	var pages []pdf.Reference
	for i := 1; i <= n; i++ {
		pageRef := doc.Alloc()
		contentRef := doc.Alloc()
		data := []byte(fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s%d) Tj ET", opt.Prefix, i))
		doc.Put(contentRef, &pdf.Stream{
			Dict: pdf.Dict{"Length": pdf.Integer(len(data))},
			Data: data,
		})
		page := pdf.Dict{
			"Type":     pdf.Name("Page"),
			"Contents": contentRef,
		}
		if opt.Dangling {
			page["Annots"] = pdf.Array{Missing}
		}
		doc.Put(pageRef, page)
		pages = append(pages, pageRef)
	}

	kids := buildLevel(doc, pages, opt.Fanout)
	count := pdf.Integer(n)
	doc.Put(rootRef, pdf.Dict{
		"Type":     pdf.Name("Pages"),
		"Kids":     kids,
		"Count":    count,
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
		"Resources": pdf.Dict{
			"Font": pdf.Dict{"F1": fontRef},
		},
	})
	setParent(doc, kids, rootRef)

	doc.Put(catalogRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": rootRef,
	})
	infoRef := doc.Alloc()
	doc.Put(infoRef, pdf.Dict{"Producer": pdf.TextString("testdoc")})
	doc.Trailer["Root"] = catalogRef
	doc.Trailer["Info"] = infoRef

	return doc
}

// buildLevel groups the given nodes into intermediate page tree nodes, until
// at most fanout nodes remain.  The result is the kids array for the root.
func buildLevel(doc *pdf.Document, nodes []pdf.Reference, fanout int) pdf.Array {
	if fanout < 2 {
		fanout = len(nodes) + 1
	}
	for len(nodes) > fanout {
		var next []pdf.Reference
		for start := 0; start < len(nodes); start += fanout {
			end := min(start+fanout, len(nodes))
			kids := make(pdf.Array, 0, end-start)
			for _, ref := range nodes[start:end] {
				kids = append(kids, ref)
			}
			ref := doc.Alloc()
			doc.Put(ref, pdf.Dict{
				"Type":  pdf.Name("Pages"),
				"Kids":  kids,
				"Count": pdf.Integer(countLeaves(doc, kids)),
			})
			setParent(doc, kids, ref)
			next = append(next, ref)
		}
		nodes = next
	}

	res := make(pdf.Array, len(nodes))
	for i, ref := range nodes {
		res[i] = ref
	}
	return res
}

func countLeaves(doc *pdf.Document, kids pdf.Array) int {
	total := 0
	for _, kid := range kids {
		dict, _ := doc.Resolve(kid).(pdf.Dict)
		if c, isNode := dict["Count"].(pdf.Integer); isNode {
			total += int(c)
		} else {
			total++
		}
	}
	return total
}

func setParent(doc *pdf.Document, kids pdf.Array, parent pdf.Reference) {
	for _, kid := range kids {
		ref := kid.(pdf.Reference)
		if dict, ok := doc.Objects[ref].(pdf.Dict); ok {
			dict["Parent"] = parent
		}
	}
}

// Label returns the label written into the content stream of the given
// page, or the empty string if the page has no recognisable label.
func Label(doc *pdf.Document, page pdf.Reference) string {
	dict, _ := doc.Resolve(page).(pdf.Dict)
	stm, _ := doc.Resolve(dict["Contents"]).(*pdf.Stream)
	if stm == nil {
		return ""
	}
	data := string(stm.Data)
	start := strings.IndexByte(data, '(')
	end := strings.IndexByte(data, ')')
	if start < 0 || end < start {
		return ""
	}
	return data[start+1 : end]
}
