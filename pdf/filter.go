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
	"io"
)

// maxDecodedSize is the largest decoded size accepted for object streams
// and cross-reference streams.  A cross-reference stream for the largest
// possible number of objects (8388607) with 20-byte entries needs about
// 160 MiB.
var maxDecodedSize = 256 << 20

var errDecodedTooLarge = errors.New("decoded stream too large")

// decodeStream returns the decoded contents of a stream.  This is only used
// for the internal structures of a PDF file (cross-reference streams and
// object streams), and only supports the FlateDecode filter.  Page contents
// are never decoded.
func decodeStream(stm *Stream) ([]byte, error) {
	var name Object
	var parms Object
	switch f := stm.Dict["Filter"].(type) {
	case nil:
		return stm.Data, nil
	case Name:
		name = f
		parms = stm.Dict["DecodeParms"]
	case Array:
		if len(f) == 0 {
			return stm.Data, nil
		}
		if len(f) > 1 {
			return nil, fmt.Errorf("unsupported filter chain %s", Format(f))
		}
		name = f[0]
		if pa, ok := stm.Dict["DecodeParms"].(Array); ok && len(pa) > 0 {
			parms = pa[0]
		}
	default:
		return nil, errors.New("invalid /Filter field")
	}

	if name != Name("FlateDecode") {
		return nil, fmt.Errorf("unsupported filter %s", Format(name))
	}

	zr, err := zlib.NewReader(bytes.NewReader(stm.Data))
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(zr, int64(maxDecodedSize)+1))
	if err != nil && len(data) == 0 {
		return nil, err
	}
	if len(data) > maxDecodedSize {
		return nil, errDecodedTooLarge
	}
	// Truncated streams and checksum errors are common in the wild.  Use
	// whatever data could be recovered.

	pDict, _ := parms.(Dict)
	return applyPredictor(data, pDict)
}

func applyPredictor(data []byte, parms Dict) ([]byte, error) {
	param := func(key Name, def int) int {
		if val, ok := parms[key].(Integer); ok {
			return int(val)
		}
		return def
	}
	predictor := param("Predictor", 1)
	if predictor == 1 {
		return data, nil
	}
	if predictor < 10 || predictor > 15 {
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}

	colors := param("Colors", 1)
	bpc := param("BitsPerComponent", 8)
	columns := param("Columns", 1)
	if colors < 1 || bpc < 1 || columns < 1 || colors*bpc*columns > 1<<24 {
		return nil, errors.New("invalid predictor parameters")
	}
	bpp := (colors*bpc + 7) / 8
	rowBytes := (colors*bpc*columns + 7) / 8

	res := make([]byte, 0, len(data))
	prev := make([]byte, rowBytes)
	for len(data) > 0 {
		if len(data) < rowBytes+1 {
			return nil, errors.New("malformed PNG predictor data")
		}
		tp := data[0]
		row := append([]byte{}, data[1:rowBytes+1]...)
		data = data[rowBytes+1:]

		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch tp {
			case 0:
				// none
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("invalid PNG filter type %d", tp)
			}
		}
		res = append(res, row...)
		prev = row
	}
	return res, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
