package terminal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, req Request) ([]Block, error) {
	return []Block{Text("ok")}, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(Command{
		Name:    "Projects",
		Aliases: []string{"LS"},
		Handler: noopHandler,
	}))

	cmd, ok := registry.Lookup("projects")
	require.True(t, ok)
	require.Equal(t, "projects", cmd.Name)

	// Aliases and mixed case resolve to the same command.
	aliased, ok := registry.Lookup("ls")
	require.True(t, ok)
	require.Same(t, cmd, aliased)

	_, ok = registry.Lookup("missing")
	require.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(Command{Name: "help", Handler: noopHandler}))
	require.Error(t, registry.Register(Command{Name: "help", Handler: noopHandler}))
	require.Error(t, registry.Register(Command{
		Name:    "other",
		Aliases: []string{"help"},
		Handler: noopHandler,
	}))
}

func TestRegistryRejectsInvalidCommands(t *testing.T) {
	registry := NewRegistry()

	require.Error(t, registry.Register(Command{Name: "", Handler: noopHandler}))
	require.Error(t, registry.Register(Command{Name: "nohandler"}))
}

func TestRegistryCommandsSorted(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, registry.Register(Command{Name: name, Handler: noopHandler}))
	}

	require.Equal(t, []string{"alpha", "mid", "zeta"}, registry.Names())

	commands := registry.Commands()
	require.Len(t, commands, 3)
	require.Equal(t, "alpha", commands[0].Name)
	require.Equal(t, "zeta", commands[2].Name)
}

func TestRegistryVocabularyKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(Command{
		Name:    "zeta",
		Aliases: []string{"ZZ"},
		Handler: noopHandler,
	}))
	require.NoError(t, registry.Register(Command{Name: "alpha", Handler: noopHandler}))

	require.Equal(t, []string{"zeta", "zz", "alpha"}, registry.Vocabulary())
}
