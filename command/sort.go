package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/kdpdev/xsort/arena"
	"github.com/kdpdev/xsort/fsutil"
	"github.com/kdpdev/xsort/log"
	"github.com/kdpdev/xsort/log/stat"
	"github.com/kdpdev/xsort/merger"
	"github.com/kdpdev/xsort/runfile"
	"github.com/kdpdev/xsort/sorter"
	"github.com/kdpdev/xsort/strutil"
)

const (
	argUsageRequest     = "?"
	argInput            = "input"
	argOutput           = "output"
	argTempDir          = "temp_dir"
	argMaxMemoryUsageMb = "max_memory_usage_Mb"
	argMaxWriteBufferKb = "max_write_buffer_Kb"
	argMaxFilesPerPhase = "max_files_per_phase"
	argRemoveTempFiles  = "remove_temp_files"

	defaultTempDir          = "./temp/"
	defaultMaxMemoryUsageMb = "16"
	defaultMaxWriteBufferKb = "128"
	defaultMaxFilesPerPhase = "0"
	defaultRemoveTempFiles  = "1"

	delimiter = '\n'
)

// Sort is the top-level driver: it validates the arguments, generates
// sorted runs from the input and merges them into the output file.
func Sort(ctx context.Context, args *Args) (err error) {
	defer stat.Collect("sort", &err)()

	args.SetDefault(argTempDir, defaultTempDir)
	args.SetDefault(argMaxMemoryUsageMb, defaultMaxMemoryUsageMb)
	args.SetDefault(argMaxWriteBufferKb, defaultMaxWriteBufferKb)
	args.SetDefault(argMaxFilesPerPhase, defaultMaxFilesPerPhase)
	args.SetDefault(argRemoveTempFiles, defaultRemoveTempFiles)

	var verr error
	input, err := args.String(argInput)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	output, err := args.String(argOutput)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	tempDir, err := args.String(argTempDir)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	maxMemoryMb, err := args.Int(argMaxMemoryUsageMb)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	maxWriteKb, err := args.Int(argMaxWriteBufferKb)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	maxFilesPerPhase, err := args.Int(argMaxFilesPerPhase)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	removeTemp, err := args.Bool(argRemoveTempFiles)
	if err != nil {
		verr = multierror.Append(verr, err)
	}
	if verr != nil {
		return verr
	}

	log.Info(log.ArgsMessage(args.All()))

	if !fsutil.Exists(input) {
		verr = multierror.Append(verr, fmt.Errorf("input file does not exist (path = %q)", input))
	}
	if fsutil.Exists(output) {
		verr = multierror.Append(verr, fmt.Errorf("output file already exists (path = %q)", output))
	}
	if maxMemoryMb < 1 {
		verr = multierror.Append(verr, fmt.Errorf("%v must be >= 1", argMaxMemoryUsageMb))
	}
	if maxWriteKb < 1 {
		verr = multierror.Append(verr, fmt.Errorf("%v must be >= 1", argMaxWriteBufferKb))
	}
	if maxFilesPerPhase != 0 && maxFilesPerPhase < 2 {
		verr = multierror.Append(verr, fmt.Errorf("%v must be 0 or >= 2", argMaxFilesPerPhase))
	}
	if verr != nil {
		return verr
	}

	uniqueDir := filepath.Join(tempDir, strconv.FormatInt(time.Now().UnixNano(), 10))
	if fsutil.Exists(uniqueDir) {
		return fmt.Errorf("temp dir already exists (path = %q)", uniqueDir)
	}
	if err := fsutil.EnsureDir(uniqueDir); err != nil {
		return err
	}

	a, err := arena.New(maxMemoryMb << 20)
	if err != nil {
		return err
	}

	log.Info(log.InfoMessage{Operation: "sort", Source: input})

	srt, err := sorter.New(runfile.NewPathSource(uniqueDir, "sort"), a, maxWriteKb<<10, delimiter)
	if err != nil {
		return err
	}
	runs, err := srt.Sort(input)
	if err != nil {
		return err
	}
	log.Info(log.RunsMessage{Count: len(runs), Paths: runs})

	if err := ctx.Err(); err != nil {
		return err
	}

	fanIn := maxFilesPerPhase
	if fanIn == 0 {
		fanIn = len(runs)
	}
	if fanIn < 2 {
		fanIn = 2
	}

	m, err := merger.New(runfile.NewPathSource(uniqueDir, "merge"), a, fanIn, maxWriteKb<<10, delimiter, removeTemp)
	if err != nil {
		return err
	}
	if err := m.Merge(runs, output); err != nil {
		return err
	}

	if removeTemp {
		if left, err := fsutil.TreeSize(uniqueDir); err == nil {
			log.Debug(log.DebugMessage{
				Operation: "cleanup",
				Content:   fmt.Sprintf("removing %v (%v left behind)", uniqueDir, strutil.HumanizeBytes(left)),
			})
		}
		if err := os.RemoveAll(uniqueDir); err != nil {
			return err
		}
	}

	log.Info(log.InfoMessage{Operation: "sort", Source: input, Target: output, Note: "done"})
	return nil
}
