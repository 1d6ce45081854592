package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kdpdev/xsort/log"
	"github.com/kdpdev/xsort/log/stat"
)

const appName = "xsort"

var appHelpTemplate = `Name:
	{{.Name}} - {{.Usage}}

Usage:
	{{.Name}} [options] name=value ...

Parameters:
	input                - file path to be sorted (must exist)
	output               - result file path (must NOT exist)
	temp_dir             - directory for temporary files (default "./temp/")
	max_memory_usage_Mb  - max memory usage in Mb (default "16")
	max_write_buffer_Kb  - max write buffer size in Kb (default "128")
	max_files_per_phase  - max runs merged per task; 0 merges all at once (default "0")
	remove_temp_files    - set to 1 to remove all temporary files (default "1")
	?                    - print this text and exit

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}
Examples:
	1. Sort a file with default settings
		 > xsort input=./data.txt output=./data.sorted.txt
	2. Sort with a 64Mb arena, keeping the temporary files
		 > xsort input=./data.txt output=./sorted.txt max_memory_usage_Mb=64 remove_temp_files=0
	3. Run sort jobs listed in a file, one per line
		 > xsort run jobs.txt
`

var app = &cli.App{
	Name:                  appName,
	Usage:                 "external merge sort for delimited text files",
	CustomAppHelpTemplate: appHelpTemplate,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "enable JSON formatted output",
		},
		&cli.GenericFlag{
			Name: "log",
			Value: &EnumValue{
				Enum:    []string{"trace", "debug", "info", "error"},
				Default: "info",
			},
			Usage: "log level: (trace, debug, info, error)",
		},
		&cli.BoolFlag{
			Name:  "stat",
			Usage: "collect statistics of program execution and display it at the end",
		},
	},
	Before: func(c *cli.Context) error {
		printJSON := c.Bool("json")
		logLevel := c.String("log")

		log.Init(logLevel, printJSON)

		if c.Bool("stat") {
			stat.InitStat()
		}

		return nil
	},
	CommandNotFound: func(c *cli.Context, command string) {
		msg := log.ErrorMessage{
			Command: command,
			Err:     "command not found",
		}
		log.Error(msg)

		// After callback is not called if app exits with cli.Exit.
		log.Close()
	},
	OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", "Incorrect Usage:", err.Error())
			_, _ = fmt.Fprintf(os.Stderr, "See 'xsort --help' for usage\n")
			return err
		}

		return nil
	},
	Action: func(c *cli.Context) error {
		args, err := ParseArgs(c.Args().Slice())
		if err != nil {
			printError(appName, "parse", err)
			return err
		}

		if args.Empty() || args.Has(argUsageRequest) {
			return cli.ShowAppHelp(c)
		}

		if err := Sort(c.Context, args); err != nil {
			printError(appName, "sort", err)
			return err
		}

		return nil
	},
	After: func(c *cli.Context) error {
		if c.Bool("stat") && len(stat.Statistics()) > 0 {
			log.Stat(stat.Statistics())
		}

		log.Close()
		return nil
	},
}

func Commands() []*cli.Command {
	return []*cli.Command{
		NewRunCommand(),
		NewVersionCommand(),
	}
}

// Main is the entrypoint function to run given commands.
func Main(ctx context.Context, args []string) error {
	app.Commands = Commands()

	return app.RunContext(ctx, args)
}
