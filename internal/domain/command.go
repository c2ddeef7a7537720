package domain

import "strings"

const IterationLimitFlag = "-n"

// Command is an immutable verb plus ordered arguments.
type Command struct {
	Verb string
	Args []string
}

func NewCommand(verb string, args ...string) Command {
	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		filtered = append(filtered, arg)
	}

	return Command{Verb: strings.TrimSpace(verb), Args: filtered}
}

func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}

	return Command{Verb: fields[0], Args: fields[1:]}
}

func (c Command) IsZero() bool {
	return c.Verb == ""
}

func (c Command) HasArg(arg string) bool {
	for _, candidate := range c.Args {
		if candidate == arg {
			return true
		}
	}

	return false
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Verb
	}

	return c.Verb + " " + strings.Join(c.Args, " ")
}
