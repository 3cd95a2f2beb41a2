package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsVersion(t *testing.T) {
	prev := version
	defer func() { version = prev }()
	SetVersion("1.2.3")

	out, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "codeqa version 1.2.3\n", out)
}
