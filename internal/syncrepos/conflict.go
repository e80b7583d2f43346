package syncrepos

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	mergeConflictSkipReasonConstant     = "merge conflict"
	mergeConflictManualReasonConstant   = "merge conflict left for manual resolution; resolve and rerun"
	resetFailureMessageTemplateConstant = "hard reset failed: %s"
	mergeAbortFailedLogMessageConstant  = "merge abort failed"
)

// handleMergeConflict runs the conflict protocol after a conflicted merge-pull.
// Non-verbose mode always skips; verbose mode offers skip, hard reset, or
// leaving the conflict in place for manual resolution.
func (service *Service) handleMergeConflict(executionContext context.Context, options Options) Outcome {
	if !service.canPrompt(options) {
		service.abortMerge(executionContext, options)
		return skippedOutcome(mergeConflictSkipReasonConstant)
	}

	action, promptError := service.prompter.SelectConflictAction(options.DisplayName)
	if promptError != nil {
		service.abortMerge(executionContext, options)
		return erroredOutcome(promptError.Error())
	}

	switch action {
	case ConflictReset:
		remoteBranchReference := fmt.Sprintf(remoteBranchReferenceTemplateConstant, options.Parameters.SourceRemote, options.Parameters.MainBranch)
		if _, resetError := service.executeGit(executionContext, options.RepositoryPath, gitResetSubcommandConstant, gitResetHardFlagConstant, remoteBranchReference); resetError != nil {
			return erroredOutcome(fmt.Sprintf(resetFailureMessageTemplateConstant, resetError))
		}
		return syncedOutcome(true)

	case ConflictManual:
		return skippedOutcome(mergeConflictManualReasonConstant)

	default:
		service.abortMerge(executionContext, options)
		return skippedOutcome(mergeConflictSkipReasonConstant)
	}
}

// abortMerge restores the pre-merge state, best effort.
func (service *Service) abortMerge(executionContext context.Context, options Options) {
	if _, abortError := service.executeGit(executionContext, options.RepositoryPath, gitMergeSubcommandConstant, gitMergeAbortFlagConstant); abortError != nil {
		service.logger.Warn(
			mergeAbortFailedLogMessageConstant,
			zap.String(logFieldRepositoryConstant, options.DisplayName),
			zap.Error(abortError),
		)
	}
}
