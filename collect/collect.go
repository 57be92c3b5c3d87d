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

// Package collect computes reachability closures over the object graph of a
// PDF document.
package collect

import (
	"iter"
	"sort"

	"seehuhn.de/go/pdfpages/pdf"
)

// Getter gives access to the indirect objects of a document.
// The second return value reports whether the object exists.
type Getter interface {
	Get(ref pdf.Reference) (pdf.Object, bool)
}

// Closure is the set of objects reachable from a set of roots.
type Closure struct {
	// Objects maps the references of all reachable objects to the
	// objects themselves.  The objects are shared with the Getter and
	// must not be modified.
	Objects map[pdf.Reference]pdf.Object

	// Unresolved lists the references which were encountered during
	// traversal, but which could not be resolved, in increasing order.
	Unresolved []pdf.Reference
}

// Collect finds all objects reachable from the given roots.
//
// Every reference inside a visited object is followed, including references
// in stream dictionaries.  Stream data is never inspected.  References which
// the Getter cannot resolve are recorded in Closure.Unresolved and are not
// followed further.
func Collect(r Getter, roots []pdf.Reference) *Closure {
	res := &Closure{
		Objects: make(map[pdf.Reference]pdf.Object),
	}

	seen := make(map[pdf.Reference]bool)
	todo := make([]pdf.Reference, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		todo = append(todo, roots[i])
	}
	for len(todo) > 0 {
		k := len(todo) - 1
		ref := todo[k]
		todo = todo[:k]

		if seen[ref] {
			continue
		}
		seen[ref] = true

		obj, ok := r.Get(ref)
		if !ok {
			res.Unresolved = append(res.Unresolved, ref)
			continue
		}
		res.Objects[ref] = obj

		for next := range Refs(obj) {
			if !seen[next] {
				todo = append(todo, next)
			}
		}
	}

	sort.Slice(res.Unresolved, func(i, j int) bool {
		return res.Unresolved[i].Less(res.Unresolved[j])
	})
	return res
}

// Refs returns the references contained in obj, in the order in which
// they appear.  Dictionaries are traversed in order of sorted keys.
// References are not followed, and the same reference may be returned
// more than once.
//
// Objects nested more deeply than [MaxDepth] levels are not inspected.
func Refs(obj pdf.Object) iter.Seq[pdf.Reference] {
	return func(yield func(pdf.Reference) bool) {
		type todoItem struct {
			obj   pdf.Object
			depth int
		}
		todo := []todoItem{{obj: obj}}
		for len(todo) > 0 {
			k := len(todo) - 1
			item := todo[k]
			todo = todo[:k]

			if item.depth > MaxDepth {
				continue
			}

			switch x := item.obj.(type) {
			case pdf.Reference:
				if !yield(x) {
					return
				}
			case pdf.Array:
				for i := len(x) - 1; i >= 0; i-- {
					todo = append(todo, todoItem{x[i], item.depth + 1})
				}
			case pdf.Dict:
				keys := x.SortedKeys()
				for i := len(keys) - 1; i >= 0; i-- {
					todo = append(todo, todoItem{x[keys[i]], item.depth + 1})
				}
			case *pdf.Stream:
				if x != nil {
					todo = append(todo, todoItem{x.Dict, item.depth + 1})
				}
			}
		}
	}
}

// MaxDepth is the maximal nesting depth of direct objects which is
// traversed.
const MaxDepth = 1024

// Refs returns the references of all collected objects, in increasing
// order.
func (c *Closure) Refs() []pdf.Reference {
	res := make([]pdf.Reference, 0, len(c.Objects))
	for ref := range c.Objects {
		res = append(res, ref)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Less(res[j])
	})
	return res
}
