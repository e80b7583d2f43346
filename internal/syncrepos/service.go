package syncrepos

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chessbyte/dotfiles/internal/execshell"
	"github.com/chessbyte/dotfiles/internal/gitrepo"
	"github.com/chessbyte/dotfiles/internal/repos/shared"
)

const (
	gitCheckoutSubcommandConstant         = "checkout"
	gitCheckoutNewBranchFlagConstant      = "-b"
	gitCheckoutTrackFlagConstant          = "--track"
	gitFetchSubcommandConstant            = "fetch"
	gitPullSubcommandConstant             = "pull"
	gitPushSubcommandConstant             = "push"
	gitPushForceWithLeaseFlagConstant     = "--force-with-lease"
	gitResetSubcommandConstant            = "reset"
	gitResetHardFlagConstant              = "--hard"
	gitMergeSubcommandConstant            = "merge"
	gitMergeAbortFlagConstant             = "--abort"
	gitHeadReferenceConstant              = "HEAD"
	remoteBranchReferenceTemplateConstant = "%s/%s"
	gitTerminalPromptEnvironmentName      = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentValue     = "0"
	gitExecutorMissingMessageConstant     = "git executor not configured"
	inspectorMissingMessageConstant       = "repository inspector not configured"
	noSourceRemoteSkipReasonConstant      = "no source remote"
	branchSwitchSkipReasonConstant        = "branch switch failed"
	fetchFailureMessageTemplateConstant   = "fetch failed: %s"
	pullFailureMessageTemplateConstant    = "pull failed: %s"

	mirrorPushFailedLogMessageConstant    = "mirror push failed"
	branchRestoreFailedLogMessageConstant = "original branch restore failed"
	logFieldRepositoryConstant            = "repository"
	logFieldRemoteConstant                = "remote"
	logFieldBranchConstant                = "branch"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrInspectorNotConfigured indicates the repository inspector dependency was missing.
var ErrInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)

// RepositoryInspector answers the read-only working copy questions the sync engine needs.
type RepositoryInspector interface {
	IsRepository(repositoryPath string) bool
	RemoteExists(executionContext context.Context, repositoryPath string, remoteName string) (bool, error)
	HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	OnlyUntrackedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) string
	LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) bool
	BranchTip(executionContext context.Context, repositoryPath string, reference string) (string, error)
	StatusSummary(executionContext context.Context, repositoryPath string) (string, error)
}

// Dependencies enumerates the collaborators required by the sync engine.
type Dependencies struct {
	GitExecutor shared.GitExecutor
	Inspector   RepositoryInspector
	Prompter    Prompter
	Reporter    shared.Reporter
	Logger      *zap.Logger
}

// Options identifies one repository to synchronize.
type Options struct {
	RepositoryPath string
	DisplayName    string
	Parameters     Parameters
}

// Service runs the per-repository synchronization state machine.
type Service struct {
	executor  shared.GitExecutor
	inspector RepositoryInspector
	prompter  Prompter
	reporter  shared.Reporter
	logger    *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.Inspector == nil {
		return nil, ErrInspectorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}

	return &Service{
		executor:  dependencies.GitExecutor,
		inspector: dependencies.Inspector,
		prompter:  dependencies.Prompter,
		reporter:  reporter,
		logger:    logger,
	}, nil
}

// Sync brings one working copy in line with the configured source remote and
// reports exactly one Outcome.
func (service *Service) Sync(executionContext context.Context, options Options) Outcome {
	if !service.inspector.IsRepository(options.RepositoryPath) {
		return Outcome{Kind: OutcomeNotRepository}
	}

	remoteExists, remoteLookupError := service.inspector.RemoteExists(executionContext, options.RepositoryPath, options.Parameters.SourceRemote)
	if remoteLookupError != nil {
		return erroredOutcome(remoteLookupError.Error())
	}
	if !remoteExists {
		return Outcome{Kind: OutcomeMissingSourceRemote, Reason: noSourceRemoteSkipReasonConstant}
	}

	dirty, statusError := service.inspector.HasUncommittedChanges(executionContext, options.RepositoryPath)
	if statusError != nil {
		return erroredOutcome(statusError.Error())
	}

	originalBranch := service.inspector.CurrentBranch(executionContext, options.RepositoryPath)

	if dirty {
		return service.handleWorkInProgress(executionContext, options, originalBranch)
	}

	return service.runPipeline(executionContext, options, originalBranch, false).outcome
}

// pipelineResult pairs the outcome with enough detail for the work-in-progress
// fast path to know whether the source sync failed without resolution. A
// conflicted pull settled by the conflict protocol is terminal, not a failure.
type pipelineResult struct {
	outcome          Outcome
	sourceSyncFailed bool
}

// runPipeline executes BranchAlign, SourceSync, TargetMirror, and Restore for
// a repository whose working tree is safe to merge into.
func (service *Service) runPipeline(executionContext context.Context, options Options, originalBranch string, workInProgressHandled bool) pipelineResult {
	branchSwitched := false
	defer func() {
		service.restoreOriginalBranch(executionContext, options, originalBranch, branchSwitched)
	}()

	if originalBranch != options.Parameters.MainBranch {
		switchError := service.switchToMainBranch(executionContext, options)
		if switchError != nil {
			if !service.shouldStayAfterFailedSwitch(options) {
				outcome := skippedOutcome(branchSwitchSkipReasonConstant)
				outcome.WorkInProgressHandled = workInProgressHandled
				return pipelineResult{outcome: outcome}
			}
		} else {
			branchSwitched = true
		}
	}

	tipBefore, tipBeforeError := service.inspector.BranchTip(executionContext, options.RepositoryPath, gitHeadReferenceConstant)

	if _, fetchError := service.executeGit(executionContext, options.RepositoryPath, gitFetchSubcommandConstant, options.Parameters.SourceRemote); fetchError != nil {
		outcome := erroredOutcome(fmt.Sprintf(fetchFailureMessageTemplateConstant, fetchError))
		outcome.WorkInProgressHandled = workInProgressHandled
		outcome.BranchSwitched = branchSwitched
		return pipelineResult{outcome: outcome, sourceSyncFailed: true}
	}

	pullResult, pullError := service.executeGit(executionContext, options.RepositoryPath, gitPullSubcommandConstant, options.Parameters.SourceRemote, options.Parameters.MainBranch)
	if pullError != nil {
		classification, failureDetail := ClassifyPullFailure(pullError)
		if classification == PullConflict {
			outcome := service.handleMergeConflict(executionContext, options)
			outcome.WorkInProgressHandled = workInProgressHandled
			outcome.BranchSwitched = branchSwitched
			return pipelineResult{outcome: outcome}
		}
		outcome := erroredOutcome(fmt.Sprintf(pullFailureMessageTemplateConstant, failureDetail))
		outcome.WorkInProgressHandled = workInProgressHandled
		outcome.BranchSwitched = branchSwitched
		return pipelineResult{outcome: outcome, sourceSyncFailed: true}
	}

	changesPulled := service.detectPulledChanges(executionContext, options, tipBefore, tipBeforeError, pullResult.StandardOutput)

	service.mirrorToTarget(executionContext, options)

	outcome := syncedOutcome(changesPulled)
	outcome.WorkInProgressHandled = workInProgressHandled
	outcome.BranchSwitched = branchSwitched
	return pipelineResult{outcome: outcome}
}

// switchToMainBranch checks out an existing local main branch, creating a
// tracking branch from the source remote when no local branch exists.
func (service *Service) switchToMainBranch(executionContext context.Context, options Options) error {
	if service.inspector.LocalBranchExists(executionContext, options.RepositoryPath, options.Parameters.MainBranch) {
		_, checkoutError := service.executeGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, options.Parameters.MainBranch)
		return checkoutError
	}

	remoteBranchReference := fmt.Sprintf(remoteBranchReferenceTemplateConstant, options.Parameters.SourceRemote, options.Parameters.MainBranch)
	_, checkoutError := service.executeGit(
		executionContext,
		options.RepositoryPath,
		gitCheckoutSubcommandConstant,
		gitCheckoutNewBranchFlagConstant,
		options.Parameters.MainBranch,
		gitCheckoutTrackFlagConstant,
		remoteBranchReference,
	)
	return checkoutError
}

func (service *Service) shouldStayAfterFailedSwitch(options Options) bool {
	if !service.canPrompt(options) {
		return false
	}
	action, promptError := service.prompter.SelectBranchSwitchAction(options.DisplayName, options.Parameters.MainBranch)
	if promptError != nil {
		return false
	}
	return action == BranchSwitchStay
}

// detectPulledChanges compares the branch tip before and after the pull,
// falling back to the free-text heuristic when a tip could not be resolved.
func (service *Service) detectPulledChanges(executionContext context.Context, options Options, tipBefore string, tipBeforeError error, pullOutput string) bool {
	if tipBeforeError == nil {
		tipAfter, tipAfterError := service.inspector.BranchTip(executionContext, options.RepositoryPath, gitHeadReferenceConstant)
		if tipAfterError == nil {
			return tipBefore != tipAfter
		}
	}
	return ClassifyPullOutput(pullOutput) == PullChanges
}

// mirrorToTarget pushes the main branch to the target remote. Failures are
// logged and never change the sync outcome.
func (service *Service) mirrorToTarget(executionContext context.Context, options Options) {
	if len(options.Parameters.TargetRemote) == 0 {
		return
	}

	_, pushError := service.executeGit(
		executionContext,
		options.RepositoryPath,
		gitPushSubcommandConstant,
		gitPushForceWithLeaseFlagConstant,
		options.Parameters.TargetRemote,
		options.Parameters.MainBranch,
	)
	if pushError != nil {
		service.logger.Warn(
			mirrorPushFailedLogMessageConstant,
			zap.String(logFieldRepositoryConstant, options.DisplayName),
			zap.String(logFieldRemoteConstant, options.Parameters.TargetRemote),
			zap.Error(pushError),
		)
	}
}

// restoreOriginalBranch checks the original branch out again after a switch.
// Restore failures are logged, never escalated.
func (service *Service) restoreOriginalBranch(executionContext context.Context, options Options, originalBranch string, branchSwitched bool) {
	if !branchSwitched || originalBranch == options.Parameters.MainBranch || originalBranch == gitrepo.UnknownBranchNameConstant {
		return
	}

	if _, checkoutError := service.executeGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, originalBranch); checkoutError != nil {
		service.logger.Warn(
			branchRestoreFailedLogMessageConstant,
			zap.String(logFieldRepositoryConstant, options.DisplayName),
			zap.String(logFieldBranchConstant, originalBranch),
			zap.Error(checkoutError),
		)
	}
}

// canPrompt reports whether operator interaction is both requested and possible.
func (service *Service) canPrompt(options Options) bool {
	policy := shared.InteractionPolicyFromVerbose(options.Parameters.Verbose)
	return policy.ShouldPrompt() && service.prompter != nil
}

func (service *Service) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentName: gitTerminalPromptEnvironmentValue},
	})
}
