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

// Package pdf implements an in-memory object model for PDF files.
//
// A [Document] holds all indirect objects of a PDF file, indexed by their
// [Reference].  Documents are read using [Read] or [Load] and written using
// [Document.Write] or [Document.Save]:
//
//	doc, err := pdf.Load("in.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	... modify doc.Objects ...
//	err = doc.Save("out.pdf")
//
// The reader understands classic cross-reference tables, cross-reference
// streams, hybrid files and object streams.  Files with damaged
// cross-reference information are recovered by scanning for objects.
// Content streams are kept in their encoded form and are never decoded.
// Encrypted files are not supported.
//
// The writer always produces uncompressed cross-reference tables, so that
// the output can be read by all PDF versions.
package pdf
