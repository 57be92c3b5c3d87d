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

// Package jobfile reads batch jobs from HCL files.
//
// A job file contains a sequence of split, delete and merge blocks:
//
//	split "chapters" {
//	  input      = "${var.dir}/book.pdf"
//	  output_dir = "out/chapters"
//	  pages      = ["1-10", "11-20"]
//	}
//
//	delete "cleanup" {
//	  input      = "scan.pdf"
//	  output_dir = "out"
//	  pages      = [2, 5, "7-9"]
//	}
//
//	merge "bundle" {
//	  inputs = ["a.pdf", "b.pdf"]
//	  output = "out/bundle.pdf"
//	}
//
// Expressions can refer to variables supplied by the caller as var.NAME,
// and to environment variables as env.NAME.
package jobfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"seehuhn.de/go/pdfpages/pagerange"
)

// Kind is the type of a job.
type Kind string

// These are the supported kinds of jobs.
const (
	Split  Kind = "split"
	Delete Kind = "delete"
	Merge  Kind = "merge"
)

// Job is one operation from a job file.
type Job struct {
	Kind Kind
	Name string

	// Inputs lists the input files.  Split and delete jobs have exactly
	// one input file.
	Inputs []string

	// Output is the output directory for split and delete jobs, and the
	// output file for merge jobs.  If Output is empty for a split or delete
	// job, the current directory is used.
	Output string

	// Selections lists the page selections of a split job.
	Selections []string

	// Pages lists the pages to remove for a delete job.
	Pages []int

	// DefRange is the location of the job definition in the job file.
	DefRange hcl.Range
}

func (job *Job) String() string {
	return fmt.Sprintf("%s %q", job.Kind, job.Name)
}

type splitBody struct {
	Input     string   `hcl:"input"`
	OutputDir string   `hcl:"output_dir,optional"`
	Pages     []string `hcl:"pages"`
}

type deleteBody struct {
	Input     string   `hcl:"input"`
	OutputDir string   `hcl:"output_dir,optional"`
	Pages     []string `hcl:"pages"`
}

type mergeBody struct {
	Inputs []string `hcl:"inputs"`
	Output string   `hcl:"output"`
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: string(Split), LabelNames: []string{"name"}},
		{Type: string(Delete), LabelNames: []string{"name"}},
		{Type: string(Merge), LabelNames: []string{"name"}},
	},
}

// Load reads a job file.  Relative file names in the jobs are interpreted
// relative to the directory containing the job file.  Split and delete jobs
// without an output_dir write into that directory.
func Load(path string, vars map[string]string) ([]*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jobs, err := Parse(path, src, vars)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, job := range jobs {
		for i, in := range job.Inputs {
			job.Inputs[i] = resolve(base, in)
		}
		if job.Output == "" {
			job.Output = base
		} else {
			job.Output = resolve(base, job.Output)
		}
	}
	return jobs, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Parse parses the contents of a job file.  The filename is only used in
// error messages.  The jobs are returned in the order they appear in the
// file.
func Parse(filename string, src []byte, vars map[string]string) ([]*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", filename, diags)
	}

	evalCtx := newEvalContext(vars)
	seen := make(map[string]hcl.Range)
	var jobs []*Job
	for _, block := range content.Blocks {
		job := &Job{
			Kind:     Kind(block.Type),
			Name:     block.Labels[0],
			DefRange: block.DefRange,
		}

		key := job.String()
		if prev, dup := seen[key]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate job",
				Detail:   fmt.Sprintf("A %s job named %q was already defined at %s.", job.Kind, job.Name, prev),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[key] = block.DefRange

		diags = append(diags, decodeJob(job, block, evalCtx)...)
		jobs = append(jobs, job)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid job file %s: %w", filename, diags)
	}

	return jobs, nil
}

func decodeJob(job *Job, block *hcl.Block, evalCtx *hcl.EvalContext) hcl.Diagnostics {
	var diags hcl.Diagnostics
	switch job.Kind {
	case Split:
		var body splitBody
		diags = gohcl.DecodeBody(block.Body, evalCtx, &body)
		if diags.HasErrors() {
			return diags
		}
		_, err := pagerange.ParseList(body.Pages)
		if err != nil {
			return append(diags, pageError(block, err))
		}
		job.Inputs = []string{body.Input}
		job.Output = body.OutputDir
		job.Selections = body.Pages

	case Delete:
		var body deleteBody
		diags = gohcl.DecodeBody(block.Body, evalCtx, &body)
		if diags.HasErrors() {
			return diags
		}
		ranges, err := pagerange.ParseList(body.Pages)
		if err != nil {
			return append(diags, pageError(block, err))
		}
		job.Inputs = []string{body.Input}
		job.Output = body.OutputDir
		job.Pages = pagerange.Flatten(ranges)

	case Merge:
		var body mergeBody
		diags = gohcl.DecodeBody(block.Body, evalCtx, &body)
		if diags.HasErrors() {
			return diags
		}
		if len(body.Inputs) < 2 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Not enough inputs",
				Detail:   fmt.Sprintf("A merge job needs at least two input files, got %d.", len(body.Inputs)),
				Subject:  &block.DefRange,
			})
		}
		job.Inputs = body.Inputs
		job.Output = body.Output
	}
	return diags
}

func pageError(block *hcl.Block, err error) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid page selection",
		Detail:   err.Error(),
		Subject:  &block.DefRange,
	}
}

// newEvalContext makes the given variables available as var.NAME, and the
// environment variables as env.NAME.
func newEvalContext(vars map[string]string) *hcl.EvalContext {
	varVals := make(map[string]cty.Value, len(vars))
	for name, val := range vars {
		varVals[name] = cty.StringVal(val)
	}

	envVals := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if ok && name != "" {
			envVals[name] = cty.StringVal(val)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(varVals),
			"env": cty.ObjectVal(envVals),
		},
	}
}
