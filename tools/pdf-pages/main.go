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

// Pdf-pages counts, splits, merges and removes pages of PDF files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"seehuhn.de/go/pdfpages"
	"seehuhn.de/go/pdfpages/command"
	"seehuhn.de/go/pdfpages/internal/ctxlog"
	"seehuhn.de/go/pdfpages/remap"
	"seehuhn.de/go/pdfpages/tools/internal/buildinfo"
	"seehuhn.de/go/pdfpages/tools/internal/profile"
)

const toolName = "pdf-pages"

// config holds the global command-line flag values.
type config struct {
	logLevel     string
	logFormat    string
	nullDangling bool
	cpuprofile   string
	memprofile   string
	version      bool
}

// errUsage indicates that the command line was invalid.  The usage
// message has already been printed.
var errUsage = errors.New("invalid command line")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	defaultFormat := "json"
	if term.IsTerminal(int(os.Stderr.Fd())) {
		defaultFormat = "text"
	}

	err := run(ctx, os.Args[1:], defaultFormat, os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, defaultFormat string, stdout, stderr io.Writer) error {
	var cfg config
	flags := flag.NewFlagSet(toolName, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cfg.logLevel, "log-level", "warn", "log level (debug, info, warn or error)")
	flags.StringVar(&cfg.logFormat, "log-format", defaultFormat, "log format (text or json)")
	flags.BoolVar(&cfg.nullDangling, "null-dangling", false, "replace references to objects not copied by null")
	flags.StringVar(&cfg.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	flags.StringVar(&cfg.memprofile, "memprofile", "", "write memory profile to `file`")
	flags.BoolVar(&cfg.version, "version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "%s: split, merge and delete pages of PDF files\n", toolName)
		fmt.Fprintf(stderr, "%s\n\n", buildinfo.Short(toolName))
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  %s [options] <command> [arguments]\n\n", toolName)
		fmt.Fprintf(stderr, "Commands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-8s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  %s count book.pdf\n", toolName)
		fmt.Fprintf(stderr, "  %s split -o out book.pdf 1-3 4 7-9\n", toolName)
		fmt.Fprintf(stderr, "  %s delete -o out scan.pdf 2 5-6\n", toolName)
		fmt.Fprintf(stderr, "  %s merge -o all.pdf a.pdf b.pdf c.pdf\n", toolName)
		fmt.Fprintf(stderr, "  %s run -var dir=in jobs.hcl\n", toolName)
	}

	err := flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return err
	} else if err != nil {
		return errUsage
	}

	if cfg.version {
		fmt.Fprintln(stdout, buildinfo.Short(toolName))
		return nil
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return errUsage
	}

	name := flags.Arg(0)
	cmd := findCommand(name)
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		flags.Usage()
		return errUsage
	}

	logger, err := ctxlog.New(cfg.logLevel, cfg.logFormat, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errUsage
	}
	ctx = pdfpages.WithLogger(ctx, logger)

	stop, err := profile.Start(cfg.cpuprofile, cfg.memprofile)
	if err != nil {
		return err
	}

	engine := &pdfpages.Engine{}
	if cfg.nullDangling {
		engine.Dangling = remap.Null
	}
	cmdEnv := &env{
		svc:    &command.Service{Engine: engine},
		stdout: stdout,
		stderr: stderr,
	}
	err = cmd.run(ctx, cmdEnv, flags.Args()[1:])

	if stopErr := stop(); stopErr != nil {
		logger.Error("profiling failed", "error", stopErr)
	}
	return err
}
