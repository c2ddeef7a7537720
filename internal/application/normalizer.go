package application

import (
	"strconv"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/rs/zerolog"
)

const defaultPersistentLimit = 3

// Verbs that keep running until interrupted. A zero limit falls back to
// defaultPersistentLimit when the -n value is injected.
var persistentVerbs = map[string]int{
	"watch": 5,
	"trace": 0,
	"tt":    10,
	"stack": 0,
	"jfr":   1,
}

func IsPersistentVerb(verb string) bool {
	_, ok := persistentVerbs[verb]
	return ok
}

// IterationLimit returns the default -n value for a persistent verb.
func IterationLimit(verb string) (int, bool) {
	limit, ok := persistentVerbs[verb]
	if !ok {
		return 0, false
	}
	if limit <= 0 {
		return defaultPersistentLimit, true
	}
	return limit, true
}

type Normalizer struct {
	logger zerolog.Logger
}

func NewNormalizer(logger zerolog.Logger) Normalizer {
	return Normalizer{logger: logger.With().Str("component", "normalizer").Logger()}
}

func (n Normalizer) Normalize(line string) string {
	cmd := domain.ParseCommand(line)
	if cmd.IsZero() {
		return line
	}

	limit, ok := IterationLimit(cmd.Verb)
	if !ok || cmd.HasArg(domain.IterationLimitFlag) {
		return line
	}

	args := make([]string, 0, len(cmd.Args)+2)
	args = append(args, domain.IterationLimitFlag, strconv.Itoa(limit))
	args = append(args, cmd.Args...)
	normalized := domain.Command{Verb: cmd.Verb, Args: args}.String()

	n.logger.Info().
		Str("before", line).
		Str("after", normalized).
		Msg("auto-limited persistent command")

	return normalized
}
