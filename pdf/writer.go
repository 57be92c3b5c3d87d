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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write writes the document as a PDF file to w.
//
// Objects are written in order of increasing object number, followed by
// a classic cross-reference table and the trailer.
func (d *Document) Write(w io.Writer) error {
	versionString, err := d.Version.ToString()
	if err != nil {
		return err
	}
	if _, ok := d.Trailer["Root"].(Reference); !ok {
		return errNoCatalog
	}

	out := &posWriter{w: bufio.NewWriter(w)}

	// The four bytes above 127 mark the file as binary.
	_, err = fmt.Fprintf(out, "%%PDF-%s\n%%\x80\x80\x80\x80\n", versionString)
	if err != nil {
		return err
	}

	refs := d.Refs()
	positions := make(map[uint32]*xRefEntry, len(refs))
	for _, ref := range refs {
		positions[ref.Number()] = &xRefEntry{
			Pos:        out.pos,
			Generation: ref.Generation(),
		}
		_, err = fmt.Fprintf(out, "%d %d obj\n", ref.Number(), ref.Generation())
		if err != nil {
			return err
		}
		err = writeObject(out, d.Objects[ref])
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, "\nendobj\n")
		if err != nil {
			return err
		}
	}

	var size uint32 = 1
	if len(refs) > 0 {
		size = refs[len(refs)-1].Number() + 1
	}

	xRefPos := out.pos
	err = writeXRefTable(out, positions, size)
	if err != nil {
		return err
	}

	trailer := Dict{"Size": Integer(size)}
	for _, key := range []Name{"Root", "Info", "ID"} {
		if val, ok := d.Trailer[key]; ok {
			trailer[key] = val
		}
	}
	_, err = io.WriteString(out, "trailer\n")
	if err != nil {
		return err
	}
	err = trailer.PDF(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nstartxref\n%d\n%%%%EOF\n", xRefPos)
	if err != nil {
		return err
	}

	return out.w.Flush()
}

func writeXRefTable(w io.Writer, positions map[uint32]*xRefEntry, size uint32) error {
	_, err := fmt.Fprintf(w, "xref\n0 %d\n", size)
	if err != nil {
		return err
	}
	for i := uint32(0); i < size; i++ {
		entry := positions[i]
		if entry.IsFree() {
			_, err = io.WriteString(w, "0000000000 65535 f\r\n")
		} else {
			_, err = fmt.Fprintf(w, "%010d %05d n\r\n", entry.Pos, entry.Generation)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Save writes the document to the named file.
//
// Missing parent directories are created.  The data is first written to a
// temporary file in the target directory, which is then renamed, so that
// no partial output is left behind if writing fails.
func (d *Document) Save(fname string) (err error) {
	dir := filepath.Dir(fname)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fname)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	err = d.Write(tmp)
	if err != nil {
		return err
	}
	err = tmp.Chmod(0o644)
	if err != nil {
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fname)
}

type posWriter struct {
	w   *bufio.Writer
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}
