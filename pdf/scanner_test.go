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
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadObject(t *testing.T) {
	cases := []struct {
		in  string
		val Object
		ok  bool
	}{
		{"null", nil, true},
		{"true", Boolean(true), true},
		{"false", Boolean(false), true},
		{"TRUE", nil, false},

		{"0", Integer(0), true},
		{"+12", Integer(12), true},
		{"-4567", Integer(-4567), true},
		{"999999999999999999", Integer(999999999999999999), true},
		{"99999999999999999999", Real(99999999999999999999), true},

		{".5", Real(.5), true},
		{"-0.5", Real(-.5), true},
		{"4.", Real(4), true},
		{"-", Integer(0), true},

		{"/a", Name("a"), true},
		{"/A#42", Name("AB"), true},
		{"/F#23#20minor", Name("F# minor"), true},
		{"/1#2E5", Name("1.5"), true},
		{"/ab#cdef", Name("ab\xcdef"), true},
		{"/", Name(""), true},

		{"(hello)", String("hello"), true},
		{"(a(b)c)", String("a(b)c"), true},
		{`(a\)b)`, String("a)b"), true},
		{`(\101\102)`, String("AB"), true},
		{`(\0053)`, String("\0053"), true},
		{"(line\\\nbreak)", String("linebreak"), true},
		{`(\n\r\t\b\f)`, String("\n\r\t\b\f"), true},
		{"<48656C6C6F>", String("Hello"), true},
		{"<4 8 6>", String("H`"), true},
		{"<>", String(nil), true},

		{"[1 2 R 3]", Array{Reference(1 | 2<<32), Integer(3)}, true},
		{"[1 2 3]", Array{Integer(1), Integer(2), Integer(3)}, true},
		{"[/a[/b]]", Array{Name("a"), Array{Name("b")}}, true},
		{"<</a 1/b null>>", Dict{"a": Integer(1)}, true},
		{"<< /Kids [ 3 0 R ] /Count 1 >>", Dict{
			"Kids":  Array{NewReference(3, 0)},
			"Count": Integer(1),
		}, true},
		{"12 0 R", NewReference(12, 0), true},
		{"12 0 obj", Integer(12), true},

		{"<</a 1", nil, false},
		{"[1 2", nil, false},
		{")", nil, false},
	}
	for _, test := range cases {
		s := newScanner([]byte(test.in), 0, nil)
		val, err := s.readObject()
		if (err == nil) != test.ok {
			t.Errorf("%q: unexpected error %v", test.in, err)
			continue
		}
		if !test.ok {
			continue
		}
		if d := cmp.Diff(test.val, val); d != "" {
			t.Errorf("%q: %s", test.in, d)
		}
	}
}

func TestNesting(t *testing.T) {
	in := make([]byte, 2*maxNesting)
	for i := range in {
		in[i] = '['
	}
	s := newScanner(in, 0, nil)
	_, err := s.readObject()
	if err == nil {
		t.Fatal("deeply nested input accepted")
	}
}

func TestUnexpectedEOF(t *testing.T) {
	for _, in := range []string{"", "   ", "% comment only"} {
		s := newScanner([]byte(in), 0, nil)
		_, err := s.readObject()
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%q: got %v, want unexpected EOF", in, err)
		}
	}
}

func TestReadIndirectObject(t *testing.T) {
	in := "7 1 obj\n<< /Length 5 >>\nstream\r\nhello\nendstream\nendobj\n"
	s := newScanner([]byte(in), 0, nil)
	ref, obj, err := s.readIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if ref != NewReference(7, 1) {
		t.Errorf("wrong reference %s", ref)
	}
	stm, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", obj)
	}
	if string(stm.Data) != "hello" {
		t.Errorf("wrong stream data %q", stm.Data)
	}
}

func TestStreamBadLength(t *testing.T) {
	in := "1 0 obj\n<< /Length 100 >>\nstream\nabc\r\nendstream\nendobj\n"
	s := newScanner([]byte(in), 0, nil)
	_, obj, err := s.readIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	stm := obj.(*Stream)
	if string(stm.Data) != "abc" {
		t.Errorf("wrong stream data %q", stm.Data)
	}
}

func TestEmptyObject(t *testing.T) {
	s := newScanner([]byte("3 0 obj endobj"), 0, nil)
	ref, obj, err := s.readIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if ref != NewReference(3, 0) || obj != nil {
		t.Errorf("got %s %v", ref, obj)
	}
}
