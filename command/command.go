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

// Package command provides the page operations as commands for a user
// interface.  Results and errors are returned as human-readable messages.
package command

import (
	"context"
	"errors"
	"fmt"

	"seehuhn.de/go/pdfpages"
	"seehuhn.de/go/pdfpages/pagerange"
)

// Service runs page operations and formats their results for display.
type Service struct {
	// Engine is used to run the operations.  If Engine is nil, an Engine
	// with default settings is used.
	Engine *pdfpages.Engine
}

func (s *Service) engine() *pdfpages.Engine {
	if s.Engine == nil {
		return &pdfpages.Engine{}
	}
	return s.Engine
}

// PageCount returns the number of pages of a PDF file.
func (s *Service) PageCount(ctx context.Context, path string) (int, error) {
	n, err := s.engine().PageCount(ctx, path)
	if err != nil {
		return 0, fail(err)
	}
	return n, nil
}

// Split writes one file per page selection into outDir.
func (s *Service) Split(ctx context.Context, path, outDir string, selections []string) (string, error) {
	written, err := s.engine().Split(ctx, path, outDir, selections)
	if err != nil {
		f := fail(err)
		if len(written) > 0 {
			f.Msg += fmt.Sprintf(" (%s already written)", plural(len(written), "file"))
		}
		return "", f
	}
	return fmt.Sprintf("Split '%s' into %s in '%s'",
		path, plural(len(written), "file"), outDir), nil
}

// DeletePages writes a copy of a PDF file without the given pages into
// outDir.
func (s *Service) DeletePages(ctx context.Context, path, outDir string, pages []int) (string, error) {
	out, err := s.engine().Delete(ctx, path, outDir, pages)
	if err != nil {
		return "", fail(err)
	}
	removed := make(map[int]bool, len(pages))
	for _, p := range pages {
		removed[p] = true
	}
	return fmt.Sprintf("Removed %s from '%s', saved as '%s'",
		plural(len(removed), "page"), path, out), nil
}

// MergeDocuments concatenates PDF files.
func (s *Service) MergeDocuments(ctx context.Context, paths []string, outPath string) (string, error) {
	err := s.engine().Merge(ctx, paths, outPath)
	if err != nil {
		return "", fail(err)
	}
	return fmt.Sprintf("Merged %s into '%s'", plural(len(paths), "file"), outPath), nil
}

// Failure is the error type returned by the Service methods.  The message
// is meant to be shown to the user.
type Failure struct {
	Msg string
	Err error
}

func (f *Failure) Error() string {
	return f.Msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(err error) *Failure {
	return &Failure{Msg: Message(err), Err: err}
}

// Message describes an error returned by a [pdfpages.Engine] in a form
// suitable for display to the user.
func Message(err error) string {
	var e *pdfpages.Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	detail := e.Kind.Error()
	if e.Err != nil {
		detail = e.Err.Error()
	}

	switch e.Kind {
	case pdfpages.ErrInputNotFound:
		return fmt.Sprintf("File not found: %s", e.Path)
	case pdfpages.ErrLoadFailed, pdfpages.ErrStructure:
		return fmt.Sprintf("Failed to load PDF '%s': %s", e.Path, detail)
	case pdfpages.ErrInvalidSelection:
		var syntaxErr *pagerange.SyntaxError
		if errors.As(e.Err, &syntaxErr) {
			return fmt.Sprintf("Invalid page selection '%s': %s",
				syntaxErr.Token, syntaxErr.Reason)
		}
		return fmt.Sprintf("Invalid page selection for '%s': %s", e.Path, detail)
	case pdfpages.ErrPageNotFound:
		return fmt.Sprintf("Page %d not found in '%s': %s", e.Page, e.Path, detail)
	case pdfpages.ErrSaveFailed:
		return fmt.Sprintf("Failed to save PDF '%s': %s", e.Path, detail)
	case pdfpages.ErrInsufficientInputs:
		return "At least two PDF files are required for merging"
	}
	return err.Error()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
