package execshell

// CommandEventObserver is notified at each stage of a command's lifecycle.
// Verbose runs attach a console observer; everywhere else the no-op observer
// stands in.
type CommandEventObserver interface {
	// CommandStarted fires before the command process is launched.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the command exits, regardless of exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the command could not run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
