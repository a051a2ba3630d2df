package mac

import (
	"fmt"
	"io"
	"runtime/debug"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Set at build time via `-ldflags "-X 'github.com/doismellburning/edcamac/src.EDCAMAC_VERSION=X'"`
var EDCAMAC_VERSION string //nolint:revive,stylecheck

func getBuildSettingOrDefault(bi *debug.BuildInfo, key string, defaultValue string) string {
	if bi == nil {
		return defaultValue
	}

	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return defaultValue
}

// revision is the VCS commit, marked if the tree was modified or we can't tell.
func revision(bi *debug.BuildInfo) string {
	var commit = getBuildSettingOrDefault(bi, "vcs.revision", "UNKNOWN")

	var dirty, err = strconv.ParseBool(getBuildSettingOrDefault(bi, "vcs.modified", "INVALID"))

	switch {
	case err != nil:
		return commit + "-UNKNOWNDIRTY"
	case dirty:
		return commit + "-DIRTY"
	}

	return commit
}

/*------------------------------------------------------------------
 *
 * Name:	PrintVersion
 *
 * Purpose:	One line with version, revision and build time.
 *
 *		verbose adds the Go release and every module linked
 *		in, which is what we want in bug reports.
 *
 *------------------------------------------------------------------*/

func PrintVersion(w io.Writer, verbose bool) {
	var bi, _ = debug.ReadBuildInfo()

	var version = EDCAMAC_VERSION
	if version == "" {
		version = "!UNKNOWN!"
	}

	fmt.Fprintf(w, "edcamac - Version %s (revision %s, built at %s)\n",
		version, revision(bi), getBuildSettingOrDefault(bi, "vcs.time", "UNKNOWN"))

	if !verbose || bi == nil {
		return
	}

	fmt.Fprintf(w, "\nBuilt with %s\n", bi.GoVersion)

	var deps = table.New().
		Border(lipgloss.NormalBorder()).
		Headers("module", "version")

	for _, d := range bi.Deps {
		if d.Replace != nil {
			d = d.Replace
		}

		deps.Row(d.Path, d.Version)
	}

	fmt.Fprintln(w, deps.String())
}

/* end version.go */
