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

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// AsTextString interprets x as a PDF "text string" and returns
// the corresponding utf-8 encoded string.
//
// Strings starting with a UTF-16BE byte order mark are decoded as UTF-16,
// strings starting with a UTF-8 byte order mark (PDF 2.0) are returned
// without the mark.  All other strings are decoded as ISO 8859-1, which
// agrees with PDFDocEncoding for all printable ASCII and most Latin-1
// characters.
func (x String) AsTextString() string {
	switch {
	case bytes.HasPrefix(x, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(x)
		if err == nil {
			return string(out)
		}
	case bytes.HasPrefix(x, []byte{0xEF, 0xBB, 0xBF}):
		return string(x[3:])
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(x)
	if err != nil {
		return string(x)
	}
	return string(out)
}

// TextString creates a String object using the "text string" encoding,
// i.e. using either a single-byte encoding or UTF-16BE with a byte order
// mark.
func TextString(s string) String {
	buf, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err == nil {
		return String(buf)
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	buf, err = enc.Bytes([]byte(s))
	if err != nil {
		return String(s)
	}
	return String(buf)
}
