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
	"errors"
	"fmt"
	"strings"

	"seehuhn.de/go/pdfpages/pagerange"
)

// These errors classify the failures of the [Engine] operations.
// All errors returned by the Engine are of type [*Error], and wrap
// one of these values.
var (
	ErrInputNotFound      = errors.New("input file not found")
	ErrLoadFailed         = errors.New("cannot load PDF file")
	ErrInvalidSelection   = pagerange.ErrSyntax
	ErrPageNotFound       = errors.New("page not found")
	ErrStructure          = errors.New("invalid document structure")
	ErrSaveFailed         = errors.New("cannot save PDF file")
	ErrInsufficientInputs = errors.New("at least two input files are required")
)

// Error describes the failure of an [Engine] operation.
type Error struct {
	// Op is the operation which failed, for example "split".
	Op string

	// Path is the file name of the input or output file concerned.
	Path string

	// Token is the page selection concerned, if any.
	Token string

	// Page is the page number concerned, or 0.
	Page int

	// Kind is one of the Err* values in this package.
	Kind error

	// Err is the underlying error, or nil.
	Err error
}

func (err *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(err.Op)
	if err.Path != "" {
		b.WriteString(" ")
		b.WriteString(err.Path)
	}
	b.WriteString(": ")
	if err.Token != "" && !errors.Is(err.Err, pagerange.ErrSyntax) {
		fmt.Fprintf(b, "selection %q: ", err.Token)
	}
	if err.Page > 0 {
		fmt.Fprintf(b, "page %d: ", err.Page)
	}

	switch {
	case err.Err == nil:
		b.WriteString(err.Kind.Error())
	case errors.Is(err.Err, err.Kind):
		b.WriteString(err.Err.Error())
	default:
		b.WriteString(err.Kind.Error())
		b.WriteString(": ")
		b.WriteString(err.Err.Error())
	}
	return b.String()
}

// Unwrap returns the kind of the error and the underlying cause.
func (err *Error) Unwrap() []error {
	res := []error{err.Kind}
	if err.Err != nil {
		res = append(res, err.Err)
	}
	return res
}
