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
	"regexp"
	"strconv"
)

type xRefEntry struct {
	// InStream is the object number of the object stream containing this
	// object, or 0 if the object is stored directly in the file.
	InStream uint32

	// Pos is the byte offset of the object in the file, or the index inside
	// the object stream.  For free entries, Pos is -1.
	Pos int64

	Generation uint16
}

func (entry *xRefEntry) IsFree() bool {
	return entry == nil || entry.Pos < 0
}

func (r *reader) findXRef() (int64, error) {
	pos := bytes.LastIndex(r.data, []byte("startxref"))
	if pos < 0 {
		return 0, &MalformedFileError{Err: errors.New("startxref not found")}
	}

	s := newScanner(r.data, pos+len("startxref"), nil)
	s.skipWhiteSpace()
	xRefPos, err := s.readInteger()
	if err != nil {
		return 0, err
	}
	if xRefPos <= 0 || int64(xRefPos) >= int64(len(r.data)) {
		return 0, &MalformedFileError{
			Pos: int64(s.pos),
			Err: errors.New("invalid xref position"),
		}
	}
	return int64(xRefPos), nil
}

// readXRef reads the chain of cross-reference sections, starting from the
// most recent one.  Entries from later sections take precedence.
func (r *reader) readXRef() (map[uint32]*xRefEntry, Dict, error) {
	start, err := r.findXRef()
	if err != nil {
		return nil, nil, err
	}

	xref := make(map[uint32]*xRefEntry)
	trailer := Dict{}
	first := true
	seen := make(map[int64]bool)
	for {
		// avoid xref loops
		if seen[start] {
			break
		}
		seen[start] = true

		s := newScanner(r.data, int(start), nil)
		s.skipWhiteSpace()

		var dict Dict
		if s.hasPrefix("xref") {
			var entries map[uint32]*xRefEntry
			dict, entries, err = readXRefTable(s)
			if err != nil {
				return nil, nil, err
			}
			// In hybrid files, the entries from the cross-reference stream
			// override the entries in the table.
			if zStart, ok := dict["XRefStm"].(Integer); ok && zStart > 0 && int64(zStart) < int64(len(r.data)) {
				_, err = r.readXRefStream(xref, newScanner(r.data, int(zStart), nil))
				if err != nil {
					return nil, nil, err
				}
			}
			mergeXRef(xref, entries)
		} else {
			dict, err = r.readXRefStream(xref, s)
			if err != nil {
				return nil, nil, err
			}
		}

		if first {
			for _, key := range []Name{"Root", "Encrypt", "Info", "ID"} {
				if val, ok := dict[key]; ok {
					trailer[key] = val
				}
			}
			first = false
		}

		prev := dict["Prev"]
		if prev == nil {
			break
		}
		prevStart, ok := prev.(Integer)
		if !ok || prevStart <= 0 || int64(prevStart) >= int64(len(r.data)) {
			return nil, nil, &MalformedFileError{
				Pos: start,
				Err: fmt.Errorf("invalid /Prev value %s", Format(prev)),
			}
		}
		start = int64(prevStart)
	}

	return xref, trailer, nil
}

func mergeXRef(xref, entries map[uint32]*xRefEntry) {
	for number, entry := range entries {
		if _, present := xref[number]; !present {
			xref[number] = entry
		}
	}
}

// readXRefTable reads a classic cross-reference table, followed by the
// trailer dictionary.
func readXRefTable(s *scanner) (Dict, map[uint32]*xRefEntry, error) {
	err := s.skipString("xref")
	if err != nil {
		return nil, nil, err
	}

	entries := make(map[uint32]*xRefEntry)
	for {
		s.skipWhiteSpace()
		buf := s.peek(1)
		if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
			break
		}

		start, err := s.readInteger()
		if err != nil {
			return nil, nil, err
		}
		s.skipWhiteSpace()
		length, err := s.readInteger()
		if err != nil {
			return nil, nil, err
		}
		if start < 0 || length < 0 || start+length > 0xFFFFFFFF {
			return nil, nil, s.errorf("invalid xref subsection %d %d", start, length)
		}

		for i := start; i < start+length; i++ {
			s.skipWhiteSpace()
			pos, err := s.readInteger()
			if err != nil {
				return nil, nil, err
			}
			s.skipWhiteSpace()
			gen, err := s.readInteger()
			if err != nil {
				return nil, nil, err
			}
			if gen > 65535 || gen < 0 {
				// fix a common error in some PDF files
				gen = 65535
			}
			s.skipWhiteSpace()
			tp := s.peek(1)
			if len(tp) == 0 {
				return nil, nil, s.eof()
			}
			s.pos++

			number := uint32(i)
			if _, seen := entries[number]; seen {
				continue
			}
			switch tp[0] {
			case 'n':
				entries[number] = &xRefEntry{Pos: int64(pos), Generation: uint16(gen)}
			case 'f':
				entries[number] = &xRefEntry{Pos: -1, Generation: uint16(gen)}
			default:
				return nil, nil, s.errorf("malformed xref table")
			}
		}
	}
	s.skipWhiteSpace()
	err = s.skipString("trailer")
	if err != nil {
		return nil, nil, err
	}
	s.skipWhiteSpace()
	dict, err := s.readDict(0)
	if err != nil {
		return nil, nil, err
	}
	return dict, entries, nil
}

func (r *reader) readXRefStream(xref map[uint32]*xRefEntry, s *scanner) (Dict, error) {
	_, obj, err := s.readIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, s.errorf("invalid xref stream")
	}
	dict := stream.Dict

	w, ss, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, &MalformedFileError{Pos: int64(s.pos), Err: err}
	}
	data, err := decodeStream(stream)
	if err != nil {
		return nil, &MalformedFileError{Pos: int64(s.pos), Err: err}
	}
	err = decodeXRefStream(xref, data, w, ss)
	if err != nil {
		return nil, err
	}

	return dict, nil
}

type xRefSubSection struct {
	Start, Size int64
}

func checkXRefStreamDict(dict Dict) ([]int, []xRefSubSection, error) {
	errXRef := errors.New("malformed xref stream dictionary")

	size, ok := dict["Size"].(Integer)
	if !ok || size < 0 {
		return nil, nil, errXRef
	}
	W, ok := dict["W"].(Array)
	if !ok || len(W) < 3 {
		return nil, nil, errXRef
	}
	var w []int
	for _, Wi := range W[:3] {
		wi, ok := Wi.(Integer)
		if !ok || wi < 0 || wi > 8 {
			return nil, nil, errXRef
		}
		w = append(w, int(wi))
	}

	var ss []xRefSubSection
	switch ind := dict["Index"].(type) {
	case nil:
		ss = append(ss, xRefSubSection{0, int64(size)})
	case Array:
		if len(ind)%2 != 0 {
			return nil, nil, errXRef
		}
		for i := 0; i < len(ind); i += 2 {
			start, ok1 := ind[i].(Integer)
			n, ok2 := ind[i+1].(Integer)
			if !ok1 || !ok2 || start < 0 || n < 0 || start+n > 0xFFFFFFFF {
				return nil, nil, errXRef
			}
			ss = append(ss, xRefSubSection{int64(start), int64(n)})
		}
	default:
		return nil, nil, errXRef
	}
	return w, ss, nil
}

func decodeXRefStream(xref map[uint32]*xRefEntry, data []byte, w []int, ss []xRefSubSection) error {
	w0, w1, w2 := w[0], w[1], w[2]
	wTotal := w0 + w1 + w2
	if wTotal == 0 {
		return &MalformedFileError{Err: errors.New("invalid /W in xref stream")}
	}

	for _, sec := range ss {
		for i := sec.Start; i < sec.Start+sec.Size; i++ {
			if len(data) < wTotal {
				// Some writers get /Size wrong.  Use what we have.
				return nil
			}
			buf := data[:wTotal]
			data = data[wTotal:]

			number := uint32(i)
			if xref[number] != nil {
				continue
			}

			tp := int64(1)
			if w0 > 0 {
				tp = decodeInt(buf[:w0])
			}
			a := decodeInt(buf[w0 : w0+w1])
			b := decodeInt(buf[w0+w1 : wTotal])
			switch tp {
			case 0:
				// free object
				xref[number] = &xRefEntry{Pos: -1, Generation: uint16(b)}
			case 1:
				// a = byte offset, b = generation number
				xref[number] = &xRefEntry{Pos: a, Generation: uint16(b)}
			case 2:
				// a = object number of the object stream, b = index within
				// the stream
				xref[number] = &xRefEntry{InStream: uint32(a), Pos: b}
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}

var objHeader = regexp.MustCompile(`(\d{1,10})[\x00\t\n\f\r ]+(\d{1,5})[\x00\t\n\f\r ]+obj\b`)

// reconstructXRef rebuilds the cross-reference information by scanning the
// whole file for object headers.  This is used when the cross-reference
// table is missing or damaged.
func (r *reader) reconstructXRef() (map[uint32]*xRefEntry, Dict, error) {
	xref := make(map[uint32]*xRefEntry)
	for _, m := range objHeader.FindAllSubmatchIndex(r.data, -1) {
		if m[0] > 0 && !isSpace[r.data[m[0]-1]] && !isDelimiter[r.data[m[0]-1]] {
			continue
		}
		number, err1 := strconv.ParseUint(string(r.data[m[2]:m[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(r.data[m[4]:m[5]]), 10, 16)
		if err1 != nil || err2 != nil {
			continue
		}
		// later definitions replace earlier ones
		xref[uint32(number)] = &xRefEntry{Pos: int64(m[0]), Generation: uint16(gen)}
	}
	if len(xref) == 0 {
		return nil, nil, &MalformedFileError{Err: errors.New("no objects found")}
	}

	r.xref = xref
	stmEntries := make(map[uint32]*xRefEntry)
	for number, entry := range xref {
		ref := NewReference(number, entry.Generation)
		obj, err := r.getDirect(ref, entry)
		if err != nil {
			continue
		}
		stm, ok := obj.(*Stream)
		if !ok || stm.Dict["Type"] != Name("ObjStm") {
			continue
		}
		contents, err := r.loadObjStm(number)
		if err != nil {
			continue
		}
		for i, inner := range contents.numbers {
			if _, direct := xref[inner]; !direct {
				stmEntries[inner] = &xRefEntry{InStream: number, Pos: int64(i)}
			}
		}
	}
	mergeXRef(xref, stmEntries)

	trailer := Dict{}
	for pos := 0; ; {
		idx := bytes.Index(r.data[pos:], []byte("trailer"))
		if idx < 0 {
			break
		}
		s := newScanner(r.data, pos+idx+len("trailer"), nil)
		s.skipWhiteSpace()
		if dict, err := s.readDict(0); err == nil {
			for _, key := range []Name{"Root", "Info", "ID", "Encrypt"} {
				if val, ok := dict[key]; ok {
					trailer[key] = val
				}
			}
		}
		pos += idx + len("trailer")
	}

	if _, ok := trailer["Root"].(Reference); !ok {
		// look for the catalog among the objects
		var best Reference
		for number, entry := range xref {
			ref := NewReference(number, entry.Generation)
			obj, err := r.get(ref)
			if err != nil {
				continue
			}
			if dict, ok := obj.(Dict); ok && dict["Type"] == Name("Catalog") {
				if best == 0 || best.Less(ref) {
					best = ref
				}
			}
		}
		if best != 0 {
			trailer["Root"] = best
		}
	}

	return xref, trailer, nil
}
