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

package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		info *debug.BuildInfo
		want string
	}{
		{
			info: &debug.BuildInfo{Main: debug.Module{Path: "seehuhn.de/go/pdfpages", Version: "v0.2.0"}},
			want: "pdf-pages (seehuhn.de/go/pdfpages v0.2.0)",
		},
		{
			info: &debug.BuildInfo{Main: debug.Module{Path: "seehuhn.de/go/pdfpages", Version: "(devel)"}},
			want: "pdf-pages",
		},
		{
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "seehuhn.de/go/pdfpages", Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: "pdf-pages (seehuhn.de/go/pdfpages 01234567+dirty)",
		},
	}
	for i, c := range cases {
		got := format("pdf-pages", c.info)
		if got != c.want {
			t.Errorf("%d: got %q, want %q", i, got, c.want)
		}
	}
}
