package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
)

const (
	gitRemoteSubcommandNameConstant   = "remote"
	gitStatusSubcommandNameConstant   = "status"
	gitBranchSubcommandNameConstant   = "branch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitFetchSubcommandNameConstant    = "fetch"
	gitPullSubcommandNameConstant     = "pull"
	gitPushSubcommandNameConstant     = "push"
	gitStashSubcommandNameConstant    = "stash"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitResetSubcommandNameConstant    = "reset"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitMergeSubcommandNameConstant    = "merge"
)

var gitSubcommandActivityLabels = map[string]string{
	gitRemoteSubcommandNameConstant:   "remote listing",
	gitStatusSubcommandNameConstant:   "working tree status review",
	gitBranchSubcommandNameConstant:   "branch inspection",
	gitCheckoutSubcommandNameConstant: "branch checkout",
	gitFetchSubcommandNameConstant:    "fetch",
	gitPullSubcommandNameConstant:     "pull",
	gitPushSubcommandNameConstant:     "push",
	gitStashSubcommandNameConstant:    "stash",
	gitAddSubcommandNameConstant:      "staging",
	gitCommitSubcommandNameConstant:   "commit",
	gitResetSubcommandNameConstant:    "reset",
	gitRevParseSubcommandNameConstant: "revision lookup",
	gitMergeSubcommandNameConstant:    "merge",
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(genericStartTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(genericSuccessTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(
		genericFailureTemplateConstant,
		formatter.formatCommandLabel(command),
		result.ExitCode,
		formatter.formatStandardErrorSuffix(result.StandardError),
	)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

// GitActivityLabel names the git activity represented by the command, falling back to the raw label.
func (formatter CommandMessageFormatter) GitActivityLabel(command ShellCommand) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.formatCommandLabel(command)
	}
	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	if activityLabel, known := gitSubcommandActivityLabels[subcommand]; known {
		return activityLabel
	}
	return formatter.formatCommandLabel(command)
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}
