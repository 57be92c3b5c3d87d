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

// Package remap copies sets of PDF objects into a new document, assigning
// fresh object numbers and translating all references.
package remap

import (
	"fmt"
	"sort"

	"seehuhn.de/go/pdfpages/collect"
	"seehuhn.de/go/pdfpages/pdf"
)

// Policy determines how references to objects outside the copied set are
// treated.
type Policy int

const (
	// Keep leaves unresolved references unchanged.  In the new document
	// such references may point to nothing, or to an unrelated object.
	Keep Policy = iota

	// Null replaces unresolved references by null.  Dictionary entries
	// with a null value are removed.
	Null
)

func (p Policy) String() string {
	switch p {
	case Keep:
		return "keep"
	case Null:
		return "null"
	default:
		return fmt.Sprintf("remap.Policy(%d)", int(p))
	}
}

// IDMap maps references in a source document to references in the new
// document.
type IDMap map[pdf.Reference]pdf.Reference

// Pages translates the given source references, keeping the order.
// An error is returned if any of the references was not copied.
func (m IDMap) Pages(orig []pdf.Reference) ([]pdf.Reference, error) {
	res := make([]pdf.Reference, len(orig))
	for i, ref := range orig {
		newRef, ok := m[ref]
		if !ok {
			return nil, fmt.Errorf("page %s was not copied", ref)
		}
		res[i] = newRef
	}
	return res, nil
}

// Unit is a set of objects from one source document, keyed by their
// references in that source.
type Unit struct {
	Objects map[pdf.Reference]pdf.Object

	// Omit lists references to objects which exist in the source, but were
	// deliberately left out of Objects.  References to these objects are
	// always replaced by null, whatever the policy, since their numbers
	// have no meaning in the new document.
	Omit map[pdf.Reference]bool
}

// Remap copies the objects from all units into a new document.
//
// New object numbers are assigned sequentially starting at 1, unit by
// unit, and within each unit in increasing order of the original
// references.  Thus, the same input always gives the same output.  Units
// never share object numbers in the new document, even if their original
// references coincide.
//
// The returned IDMaps, one per unit, record the assignment.  All references
// inside the copied objects are translated using the IDMap of their unit.
// References listed in the Omit set of their unit become null.  Other
// references which are not part of their unit are handled according to
// policy.
func Remap(v pdf.Version, policy Policy, units ...Unit) (*pdf.Document, []IDMap) {
	doc := pdf.NewDocument(v)

	idMaps := make([]IDMap, len(units))
	sorted := make([][]pdf.Reference, len(units))
	var next uint32 = 1
	for i, unit := range units {
		refs := make([]pdf.Reference, 0, len(unit.Objects))
		for ref := range unit.Objects {
			refs = append(refs, ref)
		}
		sort.Slice(refs, func(i, j int) bool {
			return refs[i].Less(refs[j])
		})

		m := make(IDMap, len(refs))
		for _, ref := range refs {
			m[ref] = pdf.NewReference(next, 0)
			next++
		}
		idMaps[i] = m
		sorted[i] = refs
	}

	for i, unit := range units {
		r := &rewriter{m: idMaps[i], omit: unit.Omit, policy: policy}
		for _, ref := range sorted[i] {
			doc.Put(r.m[ref], r.rewrite(unit.Objects[ref], 0))
		}
	}

	return doc, idMaps
}

// Rewrite returns a deep copy of obj, where all references are translated
// using m.  References not found in m are treated according to policy.
// Stream data is shared between obj and the copy.
//
// Parts of obj nested more deeply than [collect.MaxDepth] are replaced by
// null.
func Rewrite(obj pdf.Object, m IDMap, policy Policy) pdf.Object {
	r := &rewriter{m: m, policy: policy}
	return r.rewrite(obj, 0)
}

type rewriter struct {
	m      IDMap
	omit   map[pdf.Reference]bool
	policy Policy
}

func (r *rewriter) rewrite(obj pdf.Object, depth int) pdf.Object {
	if depth > collect.MaxDepth {
		return nil
	}

	switch x := obj.(type) {
	case pdf.Reference:
		if newRef, ok := r.m[x]; ok {
			return newRef
		}
		if r.policy == Null || r.omit[x] {
			return nil
		}
		return x
	case pdf.Array:
		if x == nil {
			return x
		}
		res := make(pdf.Array, len(x))
		for i, val := range x {
			res[i] = r.rewrite(val, depth+1)
		}
		return res
	case pdf.Dict:
		return r.rewriteDict(x, depth)
	case *pdf.Stream:
		if x == nil {
			return nil
		}
		return &pdf.Stream{
			Dict: r.rewriteDict(x.Dict, depth),
			Data: x.Data,
		}
	case pdf.String:
		return append(pdf.String(nil), x...)
	default:
		return obj
	}
}

func (r *rewriter) rewriteDict(x pdf.Dict, depth int) pdf.Dict {
	if x == nil {
		return nil
	}
	res := make(pdf.Dict, len(x))
	for key, val := range x {
		repl := r.rewrite(val, depth+1)
		if repl != nil {
			res[key] = repl
		}
	}
	return res
}
