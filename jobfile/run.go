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

package jobfile

import (
	"context"
	"fmt"

	"seehuhn.de/go/pdfpages/command"
	"seehuhn.de/go/pdfpages/internal/ctxlog"
)

// Run executes the jobs in order.  After each successful job, report is
// called with a summary of the result.  Processing stops at the first
// failing job.  The returned error names the job which failed.
func Run(ctx context.Context, svc *command.Service, jobs []*Job, report func(job *Job, msg string)) error {
	logger := ctxlog.FromContext(ctx)
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Debug("running job", "kind", job.Kind, "name", job.Name,
			"pos", job.DefRange.String())
		msg, err := runJob(ctx, svc, job)
		if err != nil {
			return fmt.Errorf("job %s: %w", job, err)
		}
		if report != nil {
			report(job, msg)
		}
	}
	return nil
}

func runJob(ctx context.Context, svc *command.Service, job *Job) (string, error) {
	switch job.Kind {
	case Split:
		return svc.Split(ctx, job.Inputs[0], outputDir(job), job.Selections)
	case Delete:
		return svc.DeletePages(ctx, job.Inputs[0], outputDir(job), job.Pages)
	case Merge:
		return svc.MergeDocuments(ctx, job.Inputs, job.Output)
	default:
		return "", fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func outputDir(job *Job) string {
	if job.Output == "" {
		return "."
	}
	return job.Output
}
