package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRunJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var jobs []string
	for i, content := range []string{"b\na\n", "z\ny\nx\n"} {
		input := filepath.Join(dir, fmt.Sprintf("input%d", i))
		assert.NilError(t, os.WriteFile(input, []byte(content), 0644))
		jobs = append(jobs, fmt.Sprintf("input=%v output=%v temp_dir=%v",
			input, filepath.Join(dir, fmt.Sprintf("output%d", i)), filepath.Join(dir, "temp")))
	}

	script := strings.Join([]string{
		"# a comment line",
		"",
		jobs[0],
		jobs[1],
	}, "\n")

	assert.NilError(t, runJobs(context.Background(), strings.NewReader(script)))

	got0, err := os.ReadFile(filepath.Join(dir, "output0"))
	assert.NilError(t, err)
	assert.Equal(t, "a\nb\n", string(got0))

	got1, err := os.ReadFile(filepath.Join(dir, "output1"))
	assert.NilError(t, err)
	assert.Equal(t, "x\ny\nz\n", string(got1))
}

func TestRunJobsQuotedPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "my input")
	output := filepath.Join(dir, "my output")
	assert.NilError(t, os.WriteFile(input, []byte("b\na\n"), 0644))

	script := fmt.Sprintf("%q %q temp_dir=%v\n", "input="+input, "output="+output, filepath.Join(dir, "temp"))

	assert.NilError(t, runJobs(context.Background(), strings.NewReader(script)))

	got, err := os.ReadFile(output)
	assert.NilError(t, err)
	assert.Equal(t, "a\nb\n", string(got))
}

func TestRunJobsKeepsGoingAfterFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	output := filepath.Join(dir, "output")
	assert.NilError(t, os.WriteFile(input, []byte("b\na\n"), 0644))

	script := strings.Join([]string{
		// the first job fails: its input does not exist
		fmt.Sprintf("input=%v output=%v temp_dir=%v", input+".nope", output, filepath.Join(dir, "temp")),
		fmt.Sprintf("input=%v output=%v temp_dir=%v", input, output, filepath.Join(dir, "temp")),
	}, "\n")

	err := runJobs(context.Background(), strings.NewReader(script))
	assert.ErrorContains(t, err, "line 1")

	// the second job still ran
	got, rerr := os.ReadFile(output)
	assert.NilError(t, rerr)
	assert.Equal(t, "a\nb\n", string(got))
}
