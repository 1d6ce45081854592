package command

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kdpdev/xsort/log"
)

// printError is the helper function to log error messages. Aggregated
// errors are expanded into one line per cause.
func printError(command, op string, err error) {
	merr, ok := err.(*multierror.Error)
	if !ok {
		msg := log.ErrorMessage{
			Err:       cleanupError(err),
			Command:   command,
			Operation: op,
		}
		log.Error(msg)
		return
	}

	for _, err := range merr.Errors {
		msg := log.ErrorMessage{
			Err:       cleanupError(err),
			Command:   command,
			Operation: op,
		}
		log.Error(msg)
	}
}

// cleanupError converts multiline messages into
// a single line.
func cleanupError(err error) string {
	s := strings.Replace(err.Error(), "\n", " ", -1)
	s = strings.Replace(s, "\t", " ", -1)
	s = strings.Replace(s, "  ", " ", -1)
	s = strings.TrimSpace(s)
	return s
}
