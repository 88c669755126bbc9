package model

import "strings"

// Command is an external process invocation
type Command struct {
	Name string   // Executable name or path
	Args []string // Arguments
	Dir  string   // Working directory, current directory if empty
	Env  []string // Extra KEY=VALUE pairs appended to the process environment
}

// NewCommand builds a Command from an argv slice. It returns nil for an empty argv.
func NewCommand(argv []string, dir string, env ...string) *Command {
	if len(argv) == 0 {
		return nil
	}
	return &Command{
		Name: argv[0],
		Args: argv[1:],
		Dir:  dir,
		Env:  env,
	}
}

// String returns the command line for logging
func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}
