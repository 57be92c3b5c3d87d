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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"seehuhn.de/go/pdfpages"
	"seehuhn.de/go/pdfpages/command"
	"seehuhn.de/go/pdfpages/jobfile"
	"seehuhn.de/go/pdfpages/pagerange"
	"seehuhn.de/go/pdfpages/pdf"
)

type env struct {
	svc    *command.Service
	stdout io.Writer
	stderr io.Writer
}

type subcommand struct {
	name    string
	summary string
	usage   string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands []*subcommand

func init() {
	commands = []*subcommand{
		{"count", "print the number of pages", "count <file.pdf>", runCount},
		{"info", "print the version and page sizes", "info <file.pdf>", runInfo},
		{"split", "write one file per page selection", "split [-o dir] <file.pdf> <selection>...", runSplit},
		{"delete", "write a copy without the given pages", "delete [-o dir] <file.pdf> <selection>...", runDelete},
		{"merge", "concatenate files", "merge -o <output.pdf> <file.pdf> <file.pdf>...", runMerge},
		{"run", "execute the jobs in an HCL job file", "run [-var name=value]... <jobs.hcl>", runJobs},
	}
}

func findCommand(name string) *subcommand {
	for _, c := range commands {
		if c.name == name {
			return c
		}
	}
	return nil
}

// newFlags returns a flag set for the named sub-command.
func newFlags(env *env, name string) *flag.FlagSet {
	cmd := findCommand(name)
	flags := flag.NewFlagSet(toolName+" "+name, flag.ContinueOnError)
	flags.SetOutput(env.stderr)
	flags.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage:\n  %s %s\n", toolName, cmd.usage)
		var hasFlags bool
		flags.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintf(env.stderr, "\nOptions:\n")
			flags.PrintDefaults()
		}
	}
	return flags
}

// parseArgs parses the flags of a sub-command and checks the number of
// remaining arguments.
func parseArgs(flags *flag.FlagSet, args []string, minArgs, maxArgs int) error {
	err := flags.Parse(args)
	if err != nil {
		return errUsage
	}
	n := flags.NArg()
	if n < minArgs || maxArgs >= 0 && n > maxArgs {
		flags.Usage()
		return errUsage
	}
	return nil
}

func runCount(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "count")
	if err := parseArgs(flags, args, 1, 1); err != nil {
		return err
	}

	n, err := env.svc.PageCount(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, n)
	return nil
}

func runInfo(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "info")
	if err := parseArgs(flags, args, 1, 1); err != nil {
		return err
	}

	path := flags.Arg(0)
	doc, err := env.svc.Engine.Load(ctx, path)
	if err != nil {
		return &command.Failure{Msg: command.Message(err), Err: err}
	}

	fmt.Fprintf(env.stdout, "file:    %s\n", path)
	fmt.Fprintf(env.stdout, "version: %s\n", doc.PDF.Version)
	fmt.Fprintf(env.stdout, "pages:   %d\n", doc.Pages.Len())

	info, _ := doc.PDF.GetDict(doc.PDF.Trailer["Info"])
	for _, key := range []pdf.Name{"Title", "Author", "Producer"} {
		s, ok := doc.PDF.Resolve(info[key]).(pdf.String)
		if ok {
			fmt.Fprintf(env.stdout, "%-8s %s\n", strings.ToLower(string(key))+":", s.AsTextString())
		}
	}

	for i, page := range doc.Pages.Pages {
		box, err := page.MediaBox(doc.PDF)
		if err != nil {
			fmt.Fprintf(env.stdout, "page %d: %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(env.stdout, "page %d: %g x %g\n", i+1, box.Dx(), box.Dy())
	}
	return nil
}

func runSplit(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "split")
	outDir := flags.String("o", ".", "output `directory`")
	if err := parseArgs(flags, args, 2, -1); err != nil {
		return err
	}

	msg, err := env.svc.Split(ctx, flags.Arg(0), *outDir, flags.Args()[1:])
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, msg)
	return nil
}

func runDelete(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "delete")
	outDir := flags.String("o", ".", "output `directory`")
	if err := parseArgs(flags, args, 2, -1); err != nil {
		return err
	}

	path := flags.Arg(0)
	ranges, err := pagerange.ParseList(flags.Args()[1:])
	if err != nil {
		err = &pdfpages.Error{Op: "delete", Path: path,
			Kind: pdfpages.ErrInvalidSelection, Err: err}
		return &command.Failure{Msg: command.Message(err), Err: err}
	}

	msg, err := env.svc.DeletePages(ctx, path, *outDir, pagerange.Flatten(ranges))
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, msg)
	return nil
}

func runMerge(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "merge")
	out := flags.String("o", "", "output `file` (required)")
	if err := parseArgs(flags, args, 0, -1); err != nil {
		return err
	}
	if *out == "" {
		fmt.Fprintln(env.stderr, "missing output file (-o)")
		flags.Usage()
		return errUsage
	}

	msg, err := env.svc.MergeDocuments(ctx, flags.Args(), *out)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, msg)
	return nil
}

func runJobs(ctx context.Context, env *env, args []string) error {
	flags := newFlags(env, "run")
	vars := make(varFlags)
	flags.Var(vars, "var", "set a job file variable (`name=value`, repeatable)")
	if err := parseArgs(flags, args, 1, 1); err != nil {
		return err
	}

	jobs, err := jobfile.Load(flags.Arg(0), vars)
	if err != nil {
		return err
	}
	return jobfile.Run(ctx, env.svc, jobs, func(_ *jobfile.Job, msg string) {
		fmt.Fprintln(env.stdout, msg)
	})
}

// varFlags collects "-var name=value" arguments.
type varFlags map[string]string

func (v varFlags) String() string {
	return ""
}

func (v varFlags) Set(arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", arg)
	}
	v[name] = value
	return nil
}
