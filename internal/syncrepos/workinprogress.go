package syncrepos

import (
	"context"
	"fmt"
)

const (
	gitStashSubcommandConstant           = "stash"
	gitStashPushSubcommandConstant       = "push"
	gitStashIncludeUntrackedFlagConstant = "--include-untracked"
	gitAddSubcommandConstant             = "add"
	gitAddAllFlagConstant                = "-A"
	gitCommitSubcommandConstant          = "commit"
	gitCommitMessageFlagConstant         = "-m"
	defaultCommitMessageConstant         = "WIP: automatic commit before sync"
	uncommittedChangesSkipReasonConstant = "uncommitted changes"
	uncommittedChangesVerboseHintReason  = "uncommitted changes, rerun with verbose for options"
	stashFailureMessageTemplateConstant  = "stash failed: %s"
	commitFailureMessageTemplateConstant = "commit failed: %s"
	statusRenderTemplateConstant         = "%s\n"
)

// handleWorkInProgress runs the dirty-tree protocol: an automatic fast path
// for untracked-only trees, then the interactive loop in verbose mode.
// Every outcome produced here is flagged as work-in-progress handled.
func (service *Service) handleWorkInProgress(executionContext context.Context, options Options, originalBranch string) Outcome {
	untrackedOnly, classificationError := service.inspector.OnlyUntrackedChanges(executionContext, options.RepositoryPath)
	if classificationError != nil {
		return markWorkInProgress(erroredOutcome(classificationError.Error()))
	}

	// Untracked files never block a merge-pull, so sync without prompting.
	if untrackedOnly {
		fastPathResult := service.runPipeline(executionContext, options, originalBranch, true)
		if !fastPathResult.sourceSyncFailed {
			return fastPathResult.outcome
		}
	}

	if !service.canPrompt(options) {
		return markWorkInProgress(skippedOutcome(uncommittedChangesVerboseHintReason))
	}

	return service.runWorkInProgressLoop(executionContext, options, originalBranch)
}

// runWorkInProgressLoop re-renders status and re-reads a choice until the
// operator picks a terminal action. Unrecognized input degrades to skipping.
func (service *Service) runWorkInProgressLoop(executionContext context.Context, options Options, originalBranch string) Outcome {
	for {
		action, promptError := service.prompter.SelectWorkInProgressAction(options.DisplayName)
		if promptError != nil {
			return markWorkInProgress(erroredOutcome(promptError.Error()))
		}

		switch action {
		case WorkInProgressShowStatus:
			statusSummary, statusError := service.inspector.StatusSummary(executionContext, options.RepositoryPath)
			if statusError != nil {
				return markWorkInProgress(erroredOutcome(statusError.Error()))
			}
			service.reporter.Printf(statusRenderTemplateConstant, statusSummary)

		case WorkInProgressStash:
			if _, stashError := service.executeGit(executionContext, options.RepositoryPath, gitStashSubcommandConstant, gitStashPushSubcommandConstant, gitStashIncludeUntrackedFlagConstant); stashError != nil {
				return markWorkInProgress(erroredOutcome(fmt.Sprintf(stashFailureMessageTemplateConstant, stashError)))
			}
			return service.runPipeline(executionContext, options, originalBranch, true).outcome

		case WorkInProgressCommit:
			if commitError := service.commitAllChanges(executionContext, options); commitError != nil {
				return markWorkInProgress(erroredOutcome(fmt.Sprintf(commitFailureMessageTemplateConstant, commitError)))
			}
			return service.runPipeline(executionContext, options, originalBranch, true).outcome

		default:
			return markWorkInProgress(skippedOutcome(uncommittedChangesSkipReasonConstant))
		}
	}
}

func (service *Service) commitAllChanges(executionContext context.Context, options Options) error {
	commitMessage, promptError := service.prompter.RequestCommitMessage(options.DisplayName)
	if promptError != nil {
		return promptError
	}
	if len(commitMessage) == 0 {
		commitMessage = defaultCommitMessageConstant
	}

	if _, addError := service.executeGit(executionContext, options.RepositoryPath, gitAddSubcommandConstant, gitAddAllFlagConstant); addError != nil {
		return addError
	}

	_, commitError := service.executeGit(executionContext, options.RepositoryPath, gitCommitSubcommandConstant, gitCommitMessageFlagConstant, commitMessage)
	return commitError
}

func markWorkInProgress(outcome Outcome) Outcome {
	outcome.WorkInProgressHandled = true
	return outcome
}
