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

// Package pagerange parses page selections like "7" or "3-5".
package pagerange

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxPage is the largest accepted page number.  This is the limit on the
// number of pages given in the implementation notes of the PDF
// specification.
const MaxPage = 8388607

// Range is an inclusive range of 1-based page numbers.
type Range struct {
	First, Last int
}

// Parse parses a single page selection.
//
// A selection is either a page number "N", or a range "N-M" with N <= M.
// Page numbers start at 1.  Surrounding white space is ignored.
func Parse(token string) (Range, error) {
	spec := strings.TrimSpace(token)

	first, last, isRange := strings.Cut(spec, "-")
	a, err := parsePageNumber(first)
	if err != nil {
		return Range{}, &SyntaxError{Token: token, Reason: err.Error()}
	}
	if !isRange {
		return Range{First: a, Last: a}, nil
	}

	b, err := parsePageNumber(last)
	if err != nil {
		return Range{}, &SyntaxError{Token: token, Reason: err.Error()}
	}
	if a > b {
		return Range{}, &SyntaxError{
			Token:  token,
			Reason: fmt.Sprintf("start %d is after end %d", a, b),
		}
	}
	return Range{First: a, Last: b}, nil
}

func parsePageNumber(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing page number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a page number", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxPage {
		return 0, fmt.Errorf("page number %s out of range", s)
	}
	if n == 0 {
		return 0, errors.New("page numbers start at 1")
	}
	return n, nil
}

// ParseList parses a list of selections.  The first invalid selection
// causes an error.
func ParseList(tokens []string) ([]Range, error) {
	res := make([]Range, 0, len(tokens))
	for _, token := range tokens {
		r, err := Parse(token)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}

// Len returns the number of pages in the range.
func (r Range) Len() int {
	return r.Last - r.First + 1
}

// Pages returns the page numbers in the range, in increasing order.
func (r Range) Pages() []int {
	res := make([]int, 0, r.Len())
	for i := r.First; i <= r.Last; i++ {
		res = append(res, i)
	}
	return res
}

func (r Range) String() string {
	if r.First == r.Last {
		return strconv.Itoa(r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// FileName returns the name of the output file for the range:
// "page_<N>.pdf" for a single page, and "pages_<N>-<M>.pdf" otherwise.
func (r Range) FileName() string {
	if r.First == r.Last {
		return fmt.Sprintf("page_%d.pdf", r.First)
	}
	return fmt.Sprintf("pages_%d-%d.pdf", r.First, r.Last)
}

// Flatten returns the page numbers in all ranges, in increasing order and
// without duplicates.
func Flatten(ranges []Range) []int {
	seen := make(map[int]bool)
	var res []int
	for _, r := range ranges {
		for _, p := range r.Pages() {
			if !seen[p] {
				seen[p] = true
				res = append(res, p)
			}
		}
	}
	slices.Sort(res)
	return res
}

// SyntaxError reports an invalid page selection.
type SyntaxError struct {
	Token  string
	Reason string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("invalid page selection %q: %s", err.Token, err.Reason)
}

// Unwrap returns [ErrSyntax].
func (err *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// ErrSyntax is wrapped by all errors returned for invalid page selections.
var ErrSyntax = errors.New("invalid page selection")
