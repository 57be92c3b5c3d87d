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
	"compress/zlib"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeFile assembles a PDF file with a classic cross-reference table.
// The string bodies[i] becomes the body of object i+1.
func makeFile(version string, bodies []string, trailer string) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%%PDF-%s\n", version)
	offsets := make([]int, len(bodies))
	for i, body := range bodies {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefPos := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n0000000000 65535 f \n", len(bodies)+1)
	for _, off := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n",
		len(bodies)+1, trailer, xrefPos)
	return buf.Bytes()
}

var simpleBodies = []string{
	"<< /Type /Catalog /Pages 2 0 R >>",
	"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
	"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>",
	"<< /Length 5 0 R >>\nstream\nBT ET\nendstream",
	"5",
}

func TestReadSimple(t *testing.T) {
	data := makeFile("1.4", simpleBodies, "/Root 1 0 R")
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if doc.Version != V1_4 {
		t.Errorf("wrong version %s", doc.Version)
	}
	if len(doc.Objects) != 5 {
		t.Errorf("expected 5 objects, got %d", len(doc.Objects))
	}
	root, catalog, err := doc.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if root != NewReference(1, 0) || catalog["Pages"] != NewReference(2, 0) {
		t.Errorf("wrong catalog %s %s", root, catalog)
	}

	contents, ok := doc.Objects[NewReference(4, 0)].(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", doc.Objects[NewReference(4, 0)])
	}
	if string(contents.Data) != "BT ET" {
		t.Errorf("wrong content stream %q", contents.Data)
	}
}

func TestReadCatalogVersion(t *testing.T) {
	bodies := append([]string{}, simpleBodies...)
	bodies[0] = "<< /Type /Catalog /Pages 2 0 R /Version /1.7 >>"
	data := makeFile("1.4", bodies, "/Root 1 0 R")
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Version != V1_7 {
		t.Errorf("wrong version %s", doc.Version)
	}
}

func TestReadIncremental(t *testing.T) {
	data := makeFile("1.4", simpleBodies, "/Root 1 0 R")
	prevXRef := bytes.Index(data, []byte("\nxref\n")) + 1

	buf := bytes.NewBuffer(data)
	pos := buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] >>\nendobj\n")
	xrefPos := buf.Len()
	fmt.Fprintf(buf, "xref\n3 1\n%010d 00000 n \n", pos)
	fmt.Fprintf(buf, "trailer\n<< /Size 6 /Root 1 0 R /Prev %d >>\n", prevXRef)
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefPos)

	doc, err := Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	page := doc.Objects[NewReference(3, 0)].(Dict)
	want := Array{Integer(0), Integer(0), Integer(100), Integer(100)}
	if d := cmp.Diff(want, page["MediaBox"]); d != "" {
		t.Errorf("updated object not used: %s", d)
	}
}

func TestReadXRefStream(t *testing.T) {
	obj3 := "<< /Type /Pages /Kids [4 0 R] /Count 1 >>"
	obj4 := "<< /Type /Page /Parent 3 0 R /MediaBox [0 0 200 200] >>"
	header := fmt.Sprintf("3 0 4 %d ", len(obj3)+1)
	objStmData := compress(t, []byte(header+obj3+" "+obj4))

	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.5\n%\x80\x80\x80\x80\n")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 3 0 R >>\nendobj\n")
	off2 := buf.Len()
	fmt.Fprintf(buf, "2 0 obj\n<< /Type /ObjStm /N 2 /First %d /Filter /FlateDecode /Length %d >>\nstream\n",
		len(header), len(objStmData))
	buf.Write(objStmData)
	buf.WriteString("\nendstream\nendobj\n")
	off5 := buf.Len()

	rows := [][3]int{
		{0, 0, 65535},
		{1, off1, 0},
		{1, off2, 0},
		{2, 2, 0},
		{2, 2, 1},
		{1, off5, 0},
	}
	var raw []byte
	prev := make([]byte, 7)
	for _, r := range rows {
		row := []byte{
			byte(r[0]),
			byte(r[1] >> 24), byte(r[1] >> 16), byte(r[1] >> 8), byte(r[1]),
			byte(r[2] >> 8), byte(r[2]),
		}
		raw = append(raw, 2) // PNG "Up" filter
		for i := range row {
			raw = append(raw, row[i]-prev[i])
		}
		prev = row
	}
	xrefData := compress(t, raw)
	fmt.Fprintf(buf, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 4 2] /Root 1 0 R"+
		" /Filter /FlateDecode /DecodeParms << /Predictor 12 /Columns 7 >> /Length %d >>\nstream\n",
		len(xrefData))
	buf.Write(xrefData)
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", off5)

	doc, err := Read(buf)
	if err != nil {
		t.Fatal(err)
	}

	refs := doc.Refs()
	want := []Reference{NewReference(1, 0), NewReference(3, 0), NewReference(4, 0)}
	if d := cmp.Diff(want, refs); d != "" {
		t.Errorf("wrong objects: %s", d)
	}
	page, ok := doc.Objects[NewReference(4, 0)].(Dict)
	if !ok || page["Type"] != Name("Page") || page["Parent"] != NewReference(3, 0) {
		t.Errorf("wrong page object %v", doc.Objects[NewReference(4, 0)])
	}
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	_, err := zw.Write(data)
	if err != nil {
		t.Fatal(err)
	}
	err = zw.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadBrokenXRef(t *testing.T) {
	data := makeFile("1.4", simpleBodies, "/Root 1 0 R")
	idx := bytes.LastIndex(data, []byte("startxref\n"))
	broken := append([]byte{}, data[:idx]...)
	broken = append(broken, "startxref\n17\n%%EOF\n"...)

	doc, err := Read(bytes.NewReader(broken))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Objects) != 5 {
		t.Errorf("expected 5 objects, got %d", len(doc.Objects))
	}
	if _, _, err := doc.Catalog(); err != nil {
		t.Error(err)
	}
}

func TestReadNoXRef(t *testing.T) {
	data := makeFile("1.4", simpleBodies, "/Root 1 0 R")
	idx := bytes.Index(data, []byte("\nxref\n"))
	truncated := data[:idx]

	doc, err := Read(bytes.NewReader(truncated))
	if err != nil {
		t.Fatal(err)
	}
	root, _, err := doc.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if root != NewReference(1, 0) {
		t.Errorf("wrong catalog %s", root)
	}
}

func TestReadEncrypted(t *testing.T) {
	bodies := append([]string{}, simpleBodies...)
	bodies = append(bodies, "<< /Filter /Standard /V 1 /R 2 >>")
	data := makeFile("1.4", bodies, "/Root 1 0 R /Encrypt 6 0 R")
	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
}

func TestReadNotPDF(t *testing.T) {
	for _, in := range []string{"", "hello world", "%PDF-9.9\n"} {
		_, err := Read(strings.NewReader(in))
		if err == nil {
			t.Errorf("%q: no error", in)
		}
	}
}
