package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
		assert.True(t, c.DisableFlagParsing, c.Name())
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["sweep"])
}

func TestSweepCommand_MemoryBackend(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"bankauth", "sweep", "-d", "memory", "-s", "secret", "-log-level", "error"}

	root := newRootCommand()
	root.SetArgs(os.Args[1:])
	root.SetOut(&bytes.Buffer{})

	require.NoError(t, root.Execute())
}

func TestSweepCommand_MissingSecret(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"bankauth", "sweep", "-d", "memory"}

	root := newRootCommand()
	root.SetArgs(os.Args[1:])

	assert.Error(t, root.Execute())
}
