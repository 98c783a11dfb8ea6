package terminal

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/pkg/logger"
	"github.com/charlesng35/termfolio/pkg/metrics"
)

// Outcome classifies the result of a dispatched command line.
const (
	OutcomeOK      = models.CommandOutcomeOK
	OutcomeUnknown = models.CommandOutcomeUnknown
	OutcomeError   = models.CommandOutcomeError
)

// maxSuggestionDistance bounds how far a typo may be from a known command.
const maxSuggestionDistance = 2

// maxInputLength rejects absurdly long lines before parsing.
const maxInputLength = 512

// Recorder persists executed command lines for dashboard analytics.
type Recorder interface {
	Record(ctx context.Context, entry models.CommandLog) error
}

// Result is the outcome of dispatching one input line.
type Result struct {
	Command    string  `json:"command"`
	Outcome    string  `json:"outcome"`
	Blocks     []Block `json:"blocks"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// Dispatcher parses input lines, resolves commands, and records executions.
type Dispatcher struct {
	registry *Registry
	recorder Recorder
}

// NewDispatcher builds a dispatcher over the given registry. The recorder is
// optional; without one executions are not persisted.
func NewDispatcher(registry *Registry, recorder Recorder) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("terminal: registry is required")
	}
	return &Dispatcher{registry: registry, recorder: recorder}, nil
}

// Registry exposes the underlying command registry, e.g. for catalog endpoints.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch parses and executes a single input line.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, client ClientInfo) Result {
	line := strings.TrimSpace(input)
	if line == "" || len(line) > maxInputLength {
		return Result{
			Outcome: OutcomeUnknown,
			Blocks:  []Block{Text("Type 'help' to see available commands.")},
		}
	}

	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, found := d.registry.Lookup(name)
	if !found {
		result := Result{
			Command: name,
			Outcome: OutcomeUnknown,
		}

		if suggestion, ok := d.suggest(name); ok {
			result.Suggestion = suggestion
			result.Blocks = []Block{
				Text(fmt.Sprintf("command not found: %s. Did you mean '%s'?", name, suggestion)),
			}
		} else {
			result.Blocks = []Block{
				Text(fmt.Sprintf("command not found: %s. Type 'help' to see available commands.", name)),
			}
		}

		d.record(ctx, name, line, OutcomeUnknown, client)
		metrics.CommandExecutions.WithLabelValues(name, OutcomeUnknown).Inc()
		return result
	}

	blocks, err := cmd.Handler(ctx, Request{
		Command: cmd.Name,
		Args:    args,
		Client:  client,
	})
	if err != nil {
		logger.WithModule("terminal").Warn("command failed",
			zap.String("command", cmd.Name),
			zap.Error(err),
		)
		d.record(ctx, cmd.Name, line, OutcomeError, client)
		metrics.CommandExecutions.WithLabelValues(cmd.Name, OutcomeError).Inc()
		return Result{
			Command: cmd.Name,
			Outcome: OutcomeError,
			Blocks:  []Block{Text(err.Error())},
		}
	}

	d.record(ctx, cmd.Name, line, OutcomeOK, client)
	metrics.CommandExecutions.WithLabelValues(cmd.Name, OutcomeOK).Inc()

	return Result{
		Command: cmd.Name,
		Outcome: OutcomeOK,
		Blocks:  blocks,
	}
}

func (d *Dispatcher) record(ctx context.Context, command, input, outcome string, client ClientInfo) {
	if d.recorder == nil {
		return
	}

	entry := models.CommandLog{
		Command:   command,
		Input:     input,
		Outcome:   outcome,
		ClientIP:  client.IP,
		UserAgent: client.UserAgent,
	}

	// Logging failures must not break command execution.
	if err := d.recorder.Record(ctx, entry); err != nil {
		logger.WithModule("terminal").Warn("record command", zap.Error(err))
	}
}

// suggest finds the closest command name or alias within the distance bound.
// Ties keep the earliest registered candidate.
func (d *Dispatcher) suggest(input string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1

	for _, candidate := range d.registry.Vocabulary() {
		distance := levenshtein(input, candidate)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	return best, bestDistance <= maxSuggestionDistance
}

// levenshtein computes the edit distance between two strings using a
// two-row dynamic programming table.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if utf8.RuneCountInString(a) == 0 {
		return utf8.RuneCountInString(b)
	}
	if utf8.RuneCountInString(b) == 0 {
		return utf8.RuneCountInString(a)
	}

	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
