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

// Package pdfpages extracts, deletes, splits and merges pages of PDF files.
//
// Pages are copied by following the object graph: for every selected page,
// all objects reachable from the page are copied into a fresh document, with
// new object numbers.  The output gets a new, single-level page tree and a
// new document catalog.  Content streams are copied verbatim.
//
// Basic usage:
//
//	e := &pdfpages.Engine{}
//	files, err := e.Split(ctx, "in.pdf", "out", []string{"1", "3-4"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Diagnostics are written to the [log/slog] logger attached to the context
// by [WithLogger].  Without a logger, diagnostics are discarded.
//
// References to objects which are not copied, for example from a page to
// another page which is not part of the output, are left unchanged by
// default.  Set [Engine.Dangling] to [remap.Null] to replace these by null.
package pdfpages
