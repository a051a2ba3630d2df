package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Diagnostic logging.
 *
 * Description:	Stations log through charmbracelet/log.  Each engine
 *		adds its own address as a "station" field so the
 *		output of a whole simulation can be untangled.
 *
 *		Levels used:
 *
 *		debug	- every state change and exchange
 *		info	- start and end of a run
 *		warn	- frames dropped or given up on
 *		error	- things which stop a run
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Function:	NewLogger
 *
 * Inputs:	w		- Where to write.
 *
 *		level		- "debug", "info", "warn", "error".
 *				  Empty means info.
 *
 *		timestamps	- Wall clock time on each line.  Simulated
 *				  time is logged separately as "t".
 *
 *------------------------------------------------------------------*/

func NewLogger(w io.Writer, level string, timestamps bool) (*log.Logger, error) {
	var lvl, err = ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "macsim",
		ReportTimestamp: timestamps,
	}), nil
}

func ParseLogLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}

	var lvl, err = log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}

	return lvl, nil
}

/* end log.go */
