package terminal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Handler executes a command with the already-parsed arguments.
type Handler func(ctx context.Context, req Request) ([]Block, error)

// Command describes a registered terminal command.
type Command struct {
	Name    string
	Aliases []string
	Summary string
	Usage   string
	Handler Handler
}

// Request carries the parsed invocation passed to a Handler.
type Request struct {
	Command string
	Args    []string
	Client  ClientInfo
}

// ClientInfo identifies the caller for logging and history purposes.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Registry holds the set of available commands, indexed by name and alias.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	index    map[string]string
	// vocabulary lists every name and alias in registration order, for
	// typo suggestions with deterministic tie-breaking.
	vocabulary []string
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		index:    make(map[string]string),
	}
}

// Register adds a command. Names and aliases must be unique across the registry.
func (r *Registry) Register(cmd Command) error {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return fmt.Errorf("terminal: command name is required")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("terminal: command %q has no handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return fmt.Errorf("terminal: command %q already registered", name)
	}

	for _, alias := range cmd.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if _, exists := r.index[alias]; exists {
			return fmt.Errorf("terminal: alias %q already registered", alias)
		}
	}

	cmd.Name = name
	r.commands[name] = &cmd
	r.index[name] = name
	r.vocabulary = append(r.vocabulary, name)
	for _, alias := range cmd.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		r.index[alias] = name
		r.vocabulary = append(r.vocabulary, alias)
	}

	return nil
}

// MustRegister registers a command and panics on conflict. Intended for
// startup wiring where a duplicate is a programming error.
func (r *Registry) MustRegister(cmd Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup resolves a command name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return r.commands[canonical], true
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered canonical name sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vocabulary returns every name and alias in registration order.
func (r *Registry) Vocabulary() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.vocabulary))
	copy(out, r.vocabulary)
	return out
}
