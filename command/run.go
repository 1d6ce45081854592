package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli/v2"
)

var runHelpTemplate = `Name:
	{{.HelpName}} - {{.Usage}}

Usage:
	{{.HelpName}} [file]

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}
Each line of the file holds the name=value arguments of one sort job; empty
lines and lines starting with # are skipped. Without a file, jobs are read
from the standard input.

Examples:
	1. Run the sort jobs declared in a file
		 > xsort run jobs.txt
	2. Read jobs from the standard input
		 > cat jobs.txt | xsort run
`

// NewRunCommand creates the batch mode: sort jobs read line by line and
// executed in sequence.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:               "run",
		HelpName:           "run",
		Usage:              "run sort jobs declared one per line",
		CustomHelpTemplate: runHelpTemplate,
		Before: func(c *cli.Context) error {
			if c.Args().Len() > 1 {
				return fmt.Errorf("expected only 1 file")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			reader := os.Stdin
			if c.Args().Len() == 1 {
				f, err := os.Open(c.Args().First())
				if err != nil {
					return err
				}
				defer f.Close()

				reader = f
			}

			return runJobs(c.Context, reader)
		},
	}
}

// runJobs executes one Sort per job line, accumulating failures so a broken
// job does not stop the ones after it.
func runJobs(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)

	var merror error
	lineno := 0
	for scanner.Scan() {
		lineno++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := shellquote.Split(line)
		if err != nil {
			err = fmt.Errorf("line %d: %w", lineno, err)
			printError("run", "parse", err)
			merror = multierror.Append(merror, err)
			continue
		}

		args, err := ParseArgs(fields)
		if err != nil {
			err = fmt.Errorf("line %d: %w", lineno, err)
			printError("run", "parse", err)
			merror = multierror.Append(merror, err)
			continue
		}

		if err := Sort(ctx, args); err != nil {
			err = fmt.Errorf("line %d: %w", lineno, err)
			printError("run", "sort", err)
			merror = multierror.Append(merror, err)
		}

		if err := ctx.Err(); err != nil {
			return multierror.Append(merror, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return multierror.Append(merror, err)
	}

	return merror
}
