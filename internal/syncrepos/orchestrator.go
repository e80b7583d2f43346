package syncrepos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/chessbyte/dotfiles/internal/repos/shared"
)

const (
	syncRunnerMissingMessageConstant       = "sync runner not configured"
	repositoryListerMissingMessageConstant = "repository lister not configured"
	targetDirectoryMissingMessageConstant  = "target directory does not exist"
	repositoryPanicMessageTemplateConstant = "unexpected failure: %v"
	repositoryPanicLogMessageConstant      = "repository processing panicked"
	logFieldPanicConstant                  = "panic"

	syncedGlyphConstant  = "✓"
	skippedGlyphConstant = "−"
	errorGlyphConstant   = "✗"

	statusLineTemplateConstant        = "%-*s : %s %s\n"
	syncedChangesStatusTextConstant   = "synced (changes pulled)"
	syncedNoChangeStatusTextConstant  = "synced (no changes)"
	skippedStatusTextTemplateConstant = "skipped (%s)"
	erroredStatusTextTemplateConstant = "error (%s)"

	reportHeaderConstant                     = "\nSync complete:\n"
	reportFoundLineTemplateConstant          = "  repositories found:       %d\n"
	reportSyncedLineTemplateConstant         = "  synced:                   %d (%d with changes, %d unchanged)\n"
	reportSkippedLineTemplateConstant        = "  skipped:                  %d\n"
	reportErrorsLineTemplateConstant         = "  errors:                   %d\n"
	reportWorkInProgressLineTemplateConstant = "  work in progress handled: %d\n"
	reportBranchSwitchLineTemplateConstant   = "  branch switches:          %d\n"
)

// ErrSyncRunnerNotConfigured indicates the per-repository runner dependency was missing.
var ErrSyncRunnerNotConfigured = errors.New(syncRunnerMissingMessageConstant)

// ErrRepositoryListerNotConfigured indicates the directory lister dependency was missing.
var ErrRepositoryListerNotConfigured = errors.New(repositoryListerMissingMessageConstant)

// ErrTargetDirectoryMissing indicates the explicitly named target directory does not exist.
var ErrTargetDirectoryMissing = errors.New(targetDirectoryMissingMessageConstant)

// SyncRunner synchronizes one repository and reports its outcome.
type SyncRunner interface {
	Sync(executionContext context.Context, options Options) Outcome
}

// OrchestratorDependencies enumerates the collaborators required by the batch orchestrator.
type OrchestratorDependencies struct {
	Runner    SyncRunner
	Inspector RepositoryInspector
	Lister    shared.RepositoryLister
	Reporter  shared.Reporter
	Logger    *zap.Logger
}

// RunOptions configures one batch run.
type RunOptions struct {
	RootDirectory   string
	TargetDirectory string
	Parameters      Parameters
}

// Orchestrator processes repositories sequentially and aggregates their outcomes.
type Orchestrator struct {
	runner    SyncRunner
	inspector RepositoryInspector
	lister    shared.RepositoryLister
	reporter  shared.Reporter
	logger    *zap.Logger
}

// NewOrchestrator constructs an Orchestrator from the provided dependencies.
func NewOrchestrator(dependencies OrchestratorDependencies) (*Orchestrator, error) {
	if dependencies.Runner == nil {
		return nil, ErrSyncRunnerNotConfigured
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

	return &Orchestrator{
		runner:    dependencies.Runner,
		inspector: dependencies.Inspector,
		lister:    dependencies.Lister,
		reporter:  reporter,
		logger:    logger,
	}, nil
}

// Run processes every candidate directory in order and prints the final report.
// Statistics are folded in exactly one place, here.
func (orchestrator *Orchestrator) Run(executionContext context.Context, runOptions RunOptions) (RunStatistics, error) {
	candidateDirectories, listError := orchestrator.resolveCandidates(runOptions)
	if listError != nil {
		return RunStatistics{}, listError
	}

	displayNameWidth := 0
	if !runOptions.Parameters.Verbose {
		displayNameWidth = orchestrator.longestRepositoryName(candidateDirectories)
	}

	statistics := RunStatistics{}
	for _, candidateDirectory := range candidateDirectories {
		displayName := filepath.Base(candidateDirectory)
		outcome := orchestrator.syncGuarded(executionContext, Options{
			RepositoryPath: candidateDirectory,
			DisplayName:    displayName,
			Parameters:     runOptions.Parameters,
		})

		statistics.Apply(outcome)

		if outcome.Kind != OutcomeNotRepository && !runOptions.Parameters.Verbose {
			orchestrator.reporter.Printf(statusLineTemplateConstant, displayNameWidth, displayName, statusGlyph(outcome), statusText(outcome))
		}
	}

	orchestrator.printReport(statistics)
	return statistics, nil
}

// syncGuarded recovers a panic raised while processing one repository and
// records it as an errored outcome so the batch continues.
func (orchestrator *Orchestrator) syncGuarded(executionContext context.Context, options Options) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			orchestrator.logger.Error(
				repositoryPanicLogMessageConstant,
				zap.String(logFieldRepositoryConstant, options.DisplayName),
				zap.Any(logFieldPanicConstant, recovered),
			)
			outcome = erroredOutcome(fmt.Sprintf(repositoryPanicMessageTemplateConstant, recovered))
		}
	}()

	return orchestrator.runner.Sync(executionContext, options)
}

func (orchestrator *Orchestrator) resolveCandidates(runOptions RunOptions) ([]string, error) {
	if len(runOptions.TargetDirectory) > 0 {
		targetInformation, statError := os.Stat(runOptions.TargetDirectory)
		if statError != nil || !targetInformation.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrTargetDirectoryMissing, runOptions.TargetDirectory)
		}
		return []string{runOptions.TargetDirectory}, nil
	}

	if orchestrator.lister == nil {
		return nil, ErrRepositoryListerNotConfigured
	}
	return orchestrator.lister.ListCandidateDirectories(runOptions.RootDirectory)
}

// longestRepositoryName measures the widest display name among the candidates
// that are actual repositories, so status lines align.
func (orchestrator *Orchestrator) longestRepositoryName(candidateDirectories []string) int {
	longest := 0
	for _, candidateDirectory := range candidateDirectories {
		if !orchestrator.inspector.IsRepository(candidateDirectory) {
			continue
		}
		nameLength := len([]rune(filepath.Base(candidateDirectory)))
		if nameLength > longest {
			longest = nameLength
		}
	}
	return longest
}

func (orchestrator *Orchestrator) printReport(statistics RunStatistics) {
	orchestrator.reporter.Printf(reportHeaderConstant)
	orchestrator.reporter.Printf(reportFoundLineTemplateConstant, statistics.RepositoriesFound)
	orchestrator.reporter.Printf(reportSyncedLineTemplateConstant, statistics.Synced, statistics.SyncedWithChanges, statistics.SyncedNoChange)
	orchestrator.reporter.Printf(reportSkippedLineTemplateConstant, statistics.Skipped)
	orchestrator.reporter.Printf(reportErrorsLineTemplateConstant, statistics.Errors)
	orchestrator.reporter.Printf(reportWorkInProgressLineTemplateConstant, statistics.WorkInProgressHandled)
	orchestrator.reporter.Printf(reportBranchSwitchLineTemplateConstant, statistics.BranchSwitches)
}

func statusGlyph(outcome Outcome) string {
	switch outcome.Kind {
	case OutcomeSynced:
		return syncedGlyphConstant
	case OutcomeErrored:
		return errorGlyphConstant
	default:
		return skippedGlyphConstant
	}
}

func statusText(outcome Outcome) string {
	switch outcome.Kind {
	case OutcomeSynced:
		if outcome.ChangesPulled {
			return syncedChangesStatusTextConstant
		}
		return syncedNoChangeStatusTextConstant
	case OutcomeErrored:
		return fmt.Sprintf(erroredStatusTextTemplateConstant, outcome.Reason)
	default:
		reason := outcome.Reason
		if len(strings.TrimSpace(reason)) == 0 {
			reason = "skipped"
		}
		return fmt.Sprintf(skippedStatusTextTemplateConstant, reason)
	}
}
