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

package pdf

import (
	"errors"
	"fmt"
	"sort"
)

// Document is an in-memory representation of a PDF document: a set of
// numbered objects, together with the trailer dictionary which locates the
// document catalog.
//
// A Document owns all of its objects.  Objects are never shared between
// documents; to move objects into another document, copy them.
type Document struct {
	// Version is the PDF version of the document.
	Version Version

	// Trailer is the trailer dictionary.  The /Root entry must be a
	// reference to the document catalog.
	Trailer Dict

	// Objects maps object references to the corresponding objects.
	Objects map[Reference]Object

	lastNumber uint32
}

// NewDocument creates a new, empty document.
func NewDocument(v Version) *Document {
	return &Document{
		Version: v,
		Trailer: Dict{},
		Objects: make(map[Reference]Object),
	}
}

// Get returns the object with the given reference.  The second return value
// indicates whether the object is present in the document.
func (d *Document) Get(ref Reference) (Object, bool) {
	obj, ok := d.Objects[ref]
	return obj, ok
}

// Put stores obj under the given reference, replacing any previous object.
func (d *Document) Put(ref Reference, obj Object) {
	d.Objects[ref] = obj
	if n := ref.Number(); n > d.lastNumber {
		d.lastNumber = n
	}
}

// Alloc returns a reference with a previously unused object number.
func (d *Document) Alloc() Reference {
	for {
		d.lastNumber++
		ref := NewReference(d.lastNumber, 0)
		if _, used := d.Objects[ref]; !used {
			return ref
		}
	}
}

// Refs returns the references of all objects in the document, ordered
// by object number and generation.
func (d *Document) Refs() []Reference {
	refs := make([]Reference, 0, len(d.Objects))
	for ref := range d.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Less(refs[j])
	})
	return refs
}

// Resolve follows obj if it is a reference.  Unresolved references resolve
// to nil.
func (d *Document) Resolve(obj Object) Object {
	for range maxResolveChain {
		ref, isRef := obj.(Reference)
		if !isRef {
			return obj
		}
		obj = d.Objects[ref]
	}
	return nil
}

// GetDict resolves obj and makes sure the result is a dictionary.
func (d *Document) GetDict(obj Object) (Dict, error) {
	switch x := d.Resolve(obj).(type) {
	case Dict:
		return x, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("wrong type, expected Dict but got %T", x)
	}
}

// Catalog returns the document catalog and its reference.
func (d *Document) Catalog() (Reference, Dict, error) {
	root, ok := d.Trailer["Root"].(Reference)
	if !ok {
		return 0, nil, errNoCatalog
	}
	dict, isDict := d.Objects[root].(Dict)
	if !isDict {
		return 0, nil, fmt.Errorf("%w (%s)", errNoCatalog, root)
	}
	return root, dict, nil
}

// This guards against reference chains like "1 0 obj 2 0 R endobj
// 2 0 obj 1 0 R endobj".
const maxResolveChain = 16

var errNoCatalog = errors.New("missing document catalog")
