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
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// scanner reads PDF objects from an in-memory copy of a file.
type scanner struct {
	buf []byte
	pos int

	// getInt resolves indirect /Length entries of stream dictionaries.
	// If getInt is nil, only direct lengths are used.
	getInt func(Object) (Integer, bool)
}

func newScanner(buf []byte, pos int, getInt func(Object) (Integer, bool)) *scanner {
	return &scanner{
		buf:    buf,
		pos:    pos,
		getInt: getInt,
	}
}

func (s *scanner) errorf(format string, args ...any) error {
	return &MalformedFileError{
		Pos: int64(s.pos),
		Err: fmt.Errorf(format, args...),
	}
}

func (s *scanner) eof() error {
	return &MalformedFileError{
		Pos: int64(s.pos),
		Err: io.ErrUnexpectedEOF,
	}
}

// peek returns a view of the next n bytes of input.  Near the end of the
// input, fewer than n bytes are returned.
func (s *scanner) peek(n int) []byte {
	end := s.pos + n
	if end > len(s.buf) {
		end = len(s.buf)
	}
	if s.pos >= end {
		return nil
	}
	return s.buf[s.pos:end]
}

func (s *scanner) hasPrefix(pat string) bool {
	return bytes.HasPrefix(s.buf[min(s.pos, len(s.buf)):], []byte(pat))
}

// hasKeyword is like hasPrefix, but also requires that the keyword is not
// followed by a regular character.
func (s *scanner) hasKeyword(kw string) bool {
	if !s.hasPrefix(kw) {
		return false
	}
	next := s.pos + len(kw)
	return next >= len(s.buf) || isSpace[s.buf[next]] || isDelimiter[s.buf[next]]
}

func (s *scanner) skipWhiteSpace() {
	isComment := false
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else if !isSpace[c] {
			return
		}
		s.pos++
	}
}

func (s *scanner) skipString(pat string) error {
	if !s.hasPrefix(pat) {
		return s.errorf("expected %q but found %q", pat, s.peek(len(pat)))
	}
	s.pos += len(pat)
	return nil
}

// readDigits reads a non-empty sequence of decimal digits.
func (s *scanner) readDigits() (string, bool) {
	start := s.pos
	for s.pos < len(s.buf) && s.buf[s.pos] >= '0' && s.buf[s.pos] <= '9' {
		s.pos++
	}
	return string(s.buf[start:s.pos]), s.pos > start
}

// readInteger reads an integer, optionally preceded by a sign.
func (s *scanner) readInteger() (Integer, error) {
	start := s.pos
	if s.pos < len(s.buf) && (s.buf[s.pos] == '+' || s.buf[s.pos] == '-') {
		s.pos++
	}
	if _, ok := s.readDigits(); !ok {
		s.pos = start
		return 0, s.errorf("expected integer but found %q", s.peek(8))
	}
	x, err := strconv.ParseInt(string(s.buf[start:s.pos]), 10, 64)
	if err != nil {
		return 0, &MalformedFileError{Pos: int64(start), Err: err}
	}
	return Integer(x), nil
}

// readNumber reads an integer or real number.
func (s *scanner) readNumber() (Object, error) {
	start := s.pos
	hasDot := false
	hasDigit := false
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if c >= '0' && c <= '9' {
			hasDigit = true
		} else if c == '.' && !hasDot {
			hasDot = true
		} else if (c == '+' || c == '-') && s.pos == start {
			// leading sign
		} else {
			break
		}
		s.pos++
	}
	if !hasDigit {
		if s.pos > start {
			// things like "-" or "." are treated as zero by most readers
			return Integer(0), nil
		}
		return nil, s.errorf("expected number")
	}

	text := string(s.buf[start:s.pos])
	if hasDot {
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &MalformedFileError{Pos: int64(start), Err: err}
		}
		return Real(x), nil
	}

	x, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// integers which are too large are read as reals
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			return nil, &MalformedFileError{Pos: int64(start), Err: err}
		}
		return Real(f), nil
	}
	return Integer(x), nil
}

// tryReference checks whether the integer a, which has just been read, is
// the start of an "a b R" reference.  If not, the read position is
// left unchanged.
func (s *scanner) tryReference(a Integer) (Reference, bool) {
	if a < 0 || a > 0xFFFFFFFF {
		return 0, false
	}
	save := s.pos
	s.skipWhiteSpace()
	digits, ok := s.readDigits()
	if ok {
		s.skipWhiteSpace()
		if s.hasKeyword("R") {
			gen, err := strconv.ParseUint(digits, 10, 16)
			if err == nil {
				s.pos++
				return NewReference(uint32(a), uint16(gen)), true
			}
		}
	}
	s.pos = save
	return 0, false
}

func (s *scanner) readObject() (Object, error) {
	return s.readObjectAt(0)
}

func (s *scanner) readObjectAt(depth int) (Object, error) {
	if depth > maxNesting {
		return nil, s.errorf("objects nested too deeply")
	}

	s.skipWhiteSpace()
	buf := s.peek(2)
	switch {
	case len(buf) == 0:
		return nil, s.eof()
	case s.hasKeyword("null"):
		s.pos += 4
		return nil, nil
	case s.hasKeyword("true"):
		s.pos += 4
		return Boolean(true), nil
	case s.hasKeyword("false"):
		s.pos += 5
		return Boolean(false), nil
	case buf[0] == '/':
		return s.readName()
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		obj, err := s.readNumber()
		if err != nil {
			return nil, err
		}
		if a, isInt := obj.(Integer); isInt {
			if ref, isRef := s.tryReference(a); isRef {
				return ref, nil
			}
		}
		return obj, nil
	case bytes.HasPrefix(buf, []byte("<<")):
		return s.readDict(depth)
	case buf[0] == '(':
		s.pos++
		return s.readQuotedString()
	case buf[0] == '<':
		s.pos++
		return s.readHexString()
	case buf[0] == '[':
		s.pos++
		return s.readArray(depth)
	}
	return nil, s.errorf("unexpected input %q", s.peek(8))
}

// readQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) readQuotedString() (String, error) {
	var res []byte
	parenCount := 0
	for {
		if s.pos >= len(s.buf) {
			return nil, s.eof()
		}
		c := s.buf[s.pos]
		s.pos++

		switch c {
		case '\\':
			if s.pos >= len(s.buf) {
				return nil, s.eof()
			}
			c = s.buf[s.pos]
			s.pos++
			switch c {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\r':
				// line continuation
				if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// line continuation
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := c - '0'
				for range 2 {
					if s.pos >= len(s.buf) || s.buf[s.pos] < '0' || s.buf[s.pos] > '7' {
						break
					}
					val = val*8 + s.buf[s.pos] - '0'
					s.pos++
				}
				res = append(res, val)
			default:
				res = append(res, c)
			}
		case '(':
			parenCount++
			res = append(res, c)
		case ')':
			if parenCount == 0 {
				return String(res), nil
			}
			parenCount--
			res = append(res, c)
		case '\r':
			// end-of-line markers inside strings are read as \n
			if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
				s.pos++
			}
			res = append(res, '\n')
		default:
			res = append(res, c)
		}
	}
}

// readHexString reads a <>-delimited string, starting after the opening
// angled bracket.
func (s *scanner) readHexString() (String, error) {
	var res []byte
	var hexVal byte
	first := true
	for {
		if s.pos >= len(s.buf) {
			// If we reach the end of the file, the trailing ">" is missing.
			break
		}
		c := s.buf[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		d, ok := hexDigit(c)
		if !ok {
			continue
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
	}
	if !first {
		res = append(res, 16*hexVal)
	}
	return String(res), nil
}

// readName reads a PDF name object.
func (s *scanner) readName() (Name, error) {
	err := s.skipString("/")
	if err != nil {
		return "", err
	}

	var res []byte
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if isSpace[c] || isDelimiter[c] {
			break
		}
		s.pos++
		if c == '#' && s.pos+1 < len(s.buf) {
			hi, ok1 := hexDigit(s.buf[s.pos])
			lo, ok2 := hexDigit(s.buf[s.pos+1])
			if ok1 && ok2 {
				res = append(res, 16*hi+lo)
				s.pos += 2
				continue
			}
		}
		res = append(res, c)
	}
	return Name(res), nil
}

// readArray reads an array, starting after the opening "[".
func (s *scanner) readArray(depth int) (Array, error) {
	array := Array{}
	for {
		s.skipWhiteSpace()
		buf := s.peek(1)
		if len(buf) == 0 {
			return nil, s.eof()
		}
		if buf[0] == ']' {
			s.pos++
			return array, nil
		}

		obj, err := s.readObjectAt(depth + 1)
		if err != nil {
			return nil, err
		}
		array = append(array, obj)
	}
}

// readDict reads a PDF dictionary.
func (s *scanner) readDict(depth int) (Dict, error) {
	err := s.skipString("<<")
	if err != nil {
		return nil, err
	}

	dict := Dict{}
	for {
		s.skipWhiteSpace()
		if s.hasPrefix(">>") {
			s.pos += 2
			return dict, nil
		}
		buf := s.peek(1)
		if len(buf) == 0 {
			return nil, s.eof()
		}

		key, err := s.readName()
		if err != nil {
			return nil, err
		}
		val, err := s.readObjectAt(depth + 1)
		if err != nil {
			return nil, err
		}
		if val != nil {
			dict[key] = val
		}
	}
}

// readStreamData reads the data of a PDF Stream, starting after the Dict.
//
// If the /Length entry is missing or wrong, the data is assumed to extend
// up to the next "endstream" keyword.
func (s *scanner) readStreamData(dict Dict) (*Stream, error) {
	s.skipWhiteSpace()
	err := s.skipString("stream")
	if err != nil {
		return nil, err
	}
	if s.hasPrefix("\r\n") {
		s.pos += 2
	} else if s.hasPrefix("\n") || s.hasPrefix("\r") {
		s.pos++
	}
	start := s.pos

	length := Integer(-1)
	switch l := dict["Length"].(type) {
	case Integer:
		length = l
	case Reference:
		if s.getInt != nil {
			if x, ok := s.getInt(l); ok {
				length = x
			}
		}
	}

	if length >= 0 && int64(start)+int64(length) <= int64(len(s.buf)) {
		s.pos = start + int(length)
		s.skipWhiteSpace()
		if s.hasPrefix("endstream") {
			s.pos += len("endstream")
			return &Stream{Dict: dict, Data: s.buf[start : start+int(length)]}, nil
		}
	}

	// fall back to searching for the end of the stream
	idx := bytes.Index(s.buf[start:], []byte("endstream"))
	if idx < 0 {
		s.pos = start
		return nil, s.errorf("missing endstream")
	}
	end := start + idx
	if end > start && s.buf[end-1] == '\n' {
		end--
	}
	if end > start && s.buf[end-1] == '\r' {
		end--
	}
	s.pos = start + idx + len("endstream")
	return &Stream{Dict: dict, Data: s.buf[start:end]}, nil
}

// readIndirectObject reads an object of the form "n g obj ... endobj".
func (s *scanner) readIndirectObject() (Reference, Object, error) {
	// Some files point the xref entries at the end of the previous line.
	s.skipWhiteSpace()

	number, err := s.readInteger()
	if err != nil {
		return 0, nil, err
	}
	s.skipWhiteSpace()
	generation, err := s.readInteger()
	if err != nil {
		return 0, nil, err
	}
	if number < 0 || number > 0xFFFFFFFF || generation < 0 || generation > 0xFFFF {
		return 0, nil, s.errorf("invalid object number %d %d", number, generation)
	}
	s.skipWhiteSpace()
	err = s.skipString("obj")
	if err != nil {
		return 0, nil, err
	}
	ref := NewReference(uint32(number), uint16(generation))

	s.skipWhiteSpace()
	if s.hasKeyword("endobj") {
		// empty objects are read as null
		s.pos += len("endobj")
		return ref, nil, nil
	}

	obj, err := s.readObject()
	if err != nil {
		return 0, nil, err
	}
	s.skipWhiteSpace()
	if dict, isDict := obj.(Dict); isDict && s.hasKeyword("stream") {
		obj, err = s.readStreamData(dict)
		if err != nil {
			return 0, nil, err
		}
		s.skipWhiteSpace()
	}

	// A missing "endobj" is tolerated.
	if s.hasKeyword("endobj") {
		s.pos += len("endobj")
	}

	return ref, obj, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// maxNesting limits the depth of nested arrays and dictionaries.
const maxNesting = 256

var errNotPDF = errors.New("PDF header not found")
