package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "ask", "reindex", "health", "config"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestAskRequiresQuestionArg(t *testing.T) {
	assert.Error(t, askCmd.Args(askCmd, []string{}))
	assert.NoError(t, askCmd.Args(askCmd, []string{"Show me all users"}))
}
