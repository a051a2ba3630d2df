package mac

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertOutputContains runs command with a buffer to write to and checks what it wrote.
func AssertOutputContains(t *testing.T, command func(w io.Writer), expectedOutputContains string) {
	t.Helper()

	var buf bytes.Buffer

	command(&buf)

	assert.Contains(t, buf.String(), expectedOutputContains)
}
