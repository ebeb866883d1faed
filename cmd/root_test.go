package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"analyze", "risks", "plan", "import", "migrate", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "pipeline-analytics", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalysisCommands_Flags(t *testing.T) {
	flag := analyzeCmd.Flags().Lookup("source")
	require.NotNil(t, flag)
	assert.Equal(t, "store", flag.DefValue)

	flag = analyzeCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)

	for _, name := range []string{"period", "year", "stalled", "opportunities", "sales", "targets"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze --%s", name)
		assert.NotNil(t, risksCmd.Flags().Lookup(name), "risks --%s", name)
		assert.NotNil(t, planCmd.Flags().Lookup(name), "plan --%s", name)
	}
	assert.NotNil(t, risksCmd.Flags().Lookup("group"))
}

func TestImportCommand_Flags(t *testing.T) {
	for _, name := range []string{"opportunities", "sales", "targets", "salesforce"} {
		assert.NotNil(t, importCmd.Flags().Lookup(name), "import --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
