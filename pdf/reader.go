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
	"os"
)

// Read reads a complete PDF file into memory.
//
// All objects which are in use are loaded eagerly.  Object streams and
// cross-reference streams are unpacked, and are not included in the
// resulting document.  If the cross-reference information of the file is
// damaged, Read tries to reconstruct it by scanning the file for objects.
//
// The /Length entries of all streams are replaced by direct integers.
//
// Encrypted files are not supported; for these, Read returns an error
// wrapping ErrEncrypted.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return readData(data)
}

// Load reads the PDF file with the given name.
func Load(fname string) (*Document, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return readData(data)
}

type reader struct {
	data    []byte
	xref    map[uint32]*xRefEntry
	objStms map[uint32]*objStm

	// inProgress guards against loops while resolving stream lengths.
	inProgress map[uint32]bool
}

type objStm struct {
	data    []byte
	numbers []uint32
	offsets []int
}

func readData(data []byte) (*Document, error) {
	r := &reader{
		data:       data,
		objStms:    make(map[uint32]*objStm),
		inProgress: make(map[uint32]bool),
	}

	version, err := r.readHeaderVersion()
	if err != nil {
		return nil, err
	}

	xref, trailer, err := r.readXRef()
	if _, hasRoot := trailer["Root"].(Reference); err != nil || !hasRoot {
		r.objStms = make(map[uint32]*objStm)
		xref2, trailer2, err2 := r.reconstructXRef()
		if err2 != nil {
			if err == nil {
				err = &MalformedFileError{Err: errors.New("missing /Root in trailer")}
			}
			return nil, err
		}
		xref, trailer = xref2, trailer2
	}
	r.xref = xref

	if trailer["Encrypt"] != nil {
		return nil, ErrEncrypted
	}

	doc := NewDocument(version)
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := trailer[key]; ok {
			doc.Trailer[key] = val
		}
	}

	var firstErr error
	for number, entry := range xref {
		if entry.IsFree() || number == 0 {
			continue
		}
		ref := NewReference(number, entry.Generation)
		obj, err := r.get(ref)
		if err != nil {
			// Damaged objects are treated as missing.
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if stm, ok := obj.(*Stream); ok {
			tp := stm.Dict["Type"]
			if tp == Name("ObjStm") || tp == Name("XRef") {
				continue
			}
			stm.Dict["Length"] = Integer(len(stm.Data))
		}
		if obj == nil {
			continue
		}
		doc.Put(ref, obj)
	}

	rootRef, _ := doc.Trailer["Root"].(Reference)
	catalog, _ := doc.Resolve(rootRef).(Dict)
	if catalog == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, &MalformedFileError{Err: errNoCatalog}
	}

	// The catalog can override the version from the file header.
	if name, ok := catalog["Version"].(Name); ok {
		if v2, err := ParseVersion(string(name)); err == nil && v2 > doc.Version {
			doc.Version = v2
		}
	}

	return doc, nil
}

func (r *reader) readHeaderVersion() (Version, error) {
	head := r.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return 0, &MalformedFileError{Err: errNotPDF}
	}
	s := newScanner(r.data, idx+len("%PDF-"), nil)
	start := s.pos
	for s.pos < len(s.buf) && s.pos-start < 3 && !isSpace[s.buf[s.pos]] && !isDelimiter[s.buf[s.pos]] {
		s.pos++
	}
	v, err := ParseVersion(string(s.buf[start:s.pos]))
	if err != nil {
		return 0, &MalformedFileError{Pos: int64(start), Err: err}
	}
	return v, nil
}

// get returns the object with the given reference.
// References which are not listed in the cross-reference table
// resolve to nil.
func (r *reader) get(ref Reference) (Object, error) {
	entry := r.xref[ref.Number()]
	if entry.IsFree() || entry.Generation != ref.Generation() {
		return nil, nil
	}
	if entry.InStream != 0 {
		return r.getFromObjectStream(ref.Number(), entry)
	}
	return r.getDirect(ref, entry)
}

func (r *reader) getDirect(ref Reference, entry *xRefEntry) (Object, error) {
	if entry.Pos < 0 || entry.Pos >= int64(len(r.data)) {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("object %s: invalid file offset", ref),
		}
	}

	number := ref.Number()
	if r.inProgress[number] {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("object %s: circular /Length", ref),
		}
	}
	r.inProgress[number] = true
	defer delete(r.inProgress, number)

	s := newScanner(r.data, int(entry.Pos), r.getInt)
	gotRef, obj, err := s.readIndirectObject()
	if err != nil {
		return nil, err
	}
	if gotRef != ref {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("expected object %s, found %s", ref, gotRef),
		}
	}
	return obj, nil
}

// getInt resolves an indirect integer, as used for stream lengths.
func (r *reader) getInt(obj Object) (Integer, bool) {
	ref, ok := obj.(Reference)
	if !ok {
		x, ok := obj.(Integer)
		return x, ok
	}
	val, err := r.get(ref)
	if err != nil {
		return 0, false
	}
	x, ok := val.(Integer)
	return x, ok
}

func (r *reader) getFromObjectStream(number uint32, entry *xRefEntry) (Object, error) {
	contents, err := r.loadObjStm(entry.InStream)
	if err != nil {
		return nil, err
	}

	idx := int(entry.Pos)
	if idx < 0 || idx >= len(contents.numbers) || contents.numbers[idx] != number {
		// Some writers get the index wrong; search by object number instead.
		idx = -1
		for i, n := range contents.numbers {
			if n == number {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &MalformedFileError{
				Err: fmt.Errorf("object %d not found in object stream %d",
					number, entry.InStream),
			}
		}
	}

	s := newScanner(contents.data, contents.offsets[idx], nil)
	return s.readObject()
}

func (r *reader) loadObjStm(number uint32) (*objStm, error) {
	if contents, ok := r.objStms[number]; ok {
		if contents == nil {
			return nil, &MalformedFileError{
				Err: fmt.Errorf("object stream %d is damaged", number),
			}
		}
		return contents, nil
	}
	r.objStms[number] = nil

	entry := r.xref[number]
	if entry.IsFree() || entry.InStream != 0 {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("object stream %d not found", number),
		}
	}
	obj, err := r.getDirect(NewReference(number, entry.Generation), entry)
	if err != nil {
		return nil, err
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("object %d is not an object stream", number),
		}
	}

	n, ok1 := stm.Dict["N"].(Integer)
	first, ok2 := stm.Dict["First"].(Integer)
	if !ok1 || !ok2 || n < 0 || first < 0 {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("object stream %d: invalid /N or /First", number),
		}
	}
	data, err := decodeStream(stm)
	if err != nil {
		return nil, &MalformedFileError{Pos: entry.Pos, Err: err}
	}
	if int64(first) > int64(len(data)) {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: fmt.Errorf("object stream %d: /First out of range", number),
		}
	}

	contents := &objStm{data: data}
	s := newScanner(data[:first], 0, nil)
	for i := 0; i < int(n); i++ {
		s.skipWhiteSpace()
		num, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		s.skipWhiteSpace()
		off, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		if num < 0 || num > 0xFFFFFFFF || off < 0 || int64(first)+int64(off) > int64(len(data)) {
			return nil, &MalformedFileError{
				Pos: entry.Pos,
				Err: fmt.Errorf("object stream %d: invalid header", number),
			}
		}
		contents.numbers = append(contents.numbers, uint32(num))
		contents.offsets = append(contents.offsets, int(first)+int(off))
	}

	r.objStms[number] = contents
	return contents, nil
}
