// Package execshell provides structured helpers for invoking the git binary.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the command abstractions the sync
// tool uses to run git in a testable manner.
package execshell
