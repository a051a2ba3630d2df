package mac

import (
	"io"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildSettingOrDefault(t *testing.T) {
	var bi = &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}}}

	assert.Equal(t, "abc123", getBuildSettingOrDefault(bi, "vcs.revision", "UNKNOWN"))
	assert.Equal(t, "UNKNOWN", getBuildSettingOrDefault(bi, "vcs.time", "UNKNOWN"))
	assert.Equal(t, "UNKNOWN", getBuildSettingOrDefault(nil, "vcs.revision", "UNKNOWN"))
}

func TestRevision(t *testing.T) {
	var build = func(modified string) *debug.BuildInfo {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: modified},
		}}
	}

	assert.Equal(t, "abc123", revision(build("false")))
	assert.Equal(t, "abc123-DIRTY", revision(build("true")))
	assert.Equal(t, "abc123-UNKNOWNDIRTY", revision(build("maybe")))
	assert.Equal(t, "UNKNOWN-UNKNOWNDIRTY", revision(nil))
}

func TestPrintVersion(t *testing.T) {
	AssertOutputContains(t, func(w io.Writer) { PrintVersion(w, false) }, "edcamac - Version !UNKNOWN!")
	AssertOutputContains(t, func(w io.Writer) { PrintVersion(w, true) }, "Built with go")
}
