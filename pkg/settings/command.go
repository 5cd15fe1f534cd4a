package settings

import (
	"cnc-dispatch-go/pkg/channel"
	"cnc-dispatch-go/pkg/status"
)

// ActionFunc runs a command. value is nil when no value string was
// supplied; commands decode their own value semantics. Output goes to
// the originating channel.
type ActionFunc func(value *string, auth AuthLevel, out channel.Channel) status.Code

// Command is a transient named action.
type Command struct {
	Entry

	action ActionFunc

	// synchronous commands require the motion buffer drained before
	// they run.
	synchronous bool

	// async commands may block or run long.
	async bool
}

// CommandSpec collects the registration parameters for a Command.
type CommandSpec struct {
	Name        string
	LegacyName  string
	Permission  Permission
	Guard       *StateGuard
	Description string
	Action      ActionFunc
	Synchronous bool
	Async       bool
}

// NewCommand builds a Command from its spec.
func NewCommand(spec CommandSpec) *Command {
	return &Command{
		Entry:       NewEntry(spec.Name, spec.LegacyName, spec.Permission, spec.Guard, spec.Description),
		action:      spec.Action,
		synchronous: spec.Synchronous,
		async:       spec.Async,
	}
}

// Run invokes the command's action.
func (c *Command) Run(value *string, auth AuthLevel, out channel.Channel) status.Code {
	return c.action(value, auth, out)
}

// Synchronous reports whether the motion buffer must drain first.
func (c *Command) Synchronous() bool { return c.synchronous }

// Async reports whether the action may block.
func (c *Command) Async() bool { return c.async }
