package syncrepos_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chessbyte/dotfiles/internal/execshell"
	"github.com/chessbyte/dotfiles/internal/syncrepos"
)

const (
	testRepositoryPathConstant = "/home/developer/projects/dotfiles"
	testRepositoryNameConstant = "dotfiles"
	testFeatureBranchConstant  = "feature/tmux"
	testMainBranchConstant     = "main"
	testSourceRemoteConstant   = "origin"
	testTargetRemoteConstant   = "backup"
	testTipBeforeConstant      = "aaaa1111"
	testTipAfterConstant       = "bbbb2222"
)

type scriptedExecutor struct {
	responses        map[string]scriptedResponse
	recordedCommands [][]string
}

type scriptedResponse struct {
	result execshell.ExecutionResult
	err    error
}

func (executor *scriptedExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details.Arguments)
	response, known := executor.responses[strings.Join(details.Arguments, " ")]
	if !known {
		return execshell.ExecutionResult{}, nil
	}
	return response.result, response.err
}

func (executor *scriptedExecutor) commandRan(arguments string) bool {
	for _, recordedArguments := range executor.recordedCommands {
		if strings.Join(recordedArguments, " ") == arguments {
			return true
		}
	}
	return false
}

type stubInspector struct {
	isRepository     bool
	remoteExists     bool
	remoteError      error
	dirty            bool
	dirtyError       error
	untrackedOnly    bool
	untrackedError   error
	currentBranch    string
	localBranchKnown bool
	tips             []string
	tipError         error
	tipCallCount     int
	statusSummary    string
}

func (inspector *stubInspector) IsRepository(string) bool { return inspector.isRepository }

func (inspector *stubInspector) RemoteExists(context.Context, string, string) (bool, error) {
	return inspector.remoteExists, inspector.remoteError
}

func (inspector *stubInspector) HasUncommittedChanges(context.Context, string) (bool, error) {
	return inspector.dirty, inspector.dirtyError
}

func (inspector *stubInspector) OnlyUntrackedChanges(context.Context, string) (bool, error) {
	return inspector.untrackedOnly, inspector.untrackedError
}

func (inspector *stubInspector) CurrentBranch(context.Context, string) string {
	return inspector.currentBranch
}

func (inspector *stubInspector) LocalBranchExists(context.Context, string, string) bool {
	return inspector.localBranchKnown
}

func (inspector *stubInspector) BranchTip(context.Context, string, string) (string, error) {
	if inspector.tipError != nil {
		return "", inspector.tipError
	}
	if inspector.tipCallCount >= len(inspector.tips) {
		return "", errors.New("no tip scripted")
	}
	tip := inspector.tips[inspector.tipCallCount]
	inspector.tipCallCount++
	return tip, nil
}

func (inspector *stubInspector) StatusSummary(context.Context, string) (string, error) {
	return inspector.statusSummary, nil
}

type scriptedPrompter struct {
	workInProgressActions []syncrepos.WorkInProgressAction
	workInProgressIndex   int
	commitMessage         string
	branchSwitchAction    syncrepos.BranchSwitchAction
	conflictAction        syncrepos.ConflictAction
	promptCount           int
}

func (prompter *scriptedPrompter) SelectWorkInProgressAction(string) (syncrepos.WorkInProgressAction, error) {
	prompter.promptCount++
	if prompter.workInProgressIndex >= len(prompter.workInProgressActions) {
		return syncrepos.WorkInProgressSkip, nil
	}
	action := prompter.workInProgressActions[prompter.workInProgressIndex]
	prompter.workInProgressIndex++
	return action, nil
}

func (prompter *scriptedPrompter) RequestCommitMessage(string) (string, error) {
	prompter.promptCount++
	return prompter.commitMessage, nil
}

func (prompter *scriptedPrompter) SelectBranchSwitchAction(string, string) (syncrepos.BranchSwitchAction, error) {
	prompter.promptCount++
	return prompter.branchSwitchAction, nil
}

func (prompter *scriptedPrompter) SelectConflictAction(string) (syncrepos.ConflictAction, error) {
	prompter.promptCount++
	return prompter.conflictAction, nil
}

type recordingReporter struct {
	lines []string
}

func (reporter *recordingReporter) Printf(format string, arguments ...any) {
	reporter.lines = append(reporter.lines, strings.TrimRight(format, "\n"))
	_ = arguments
}

func cleanMainInspector() *stubInspector {
	return &stubInspector{
		isRepository:     true,
		remoteExists:     true,
		currentBranch:    testMainBranchConstant,
		localBranchKnown: true,
		tips:             []string{testTipBeforeConstant, testTipBeforeConstant},
	}
}

func defaultParameters() syncrepos.Parameters {
	return syncrepos.Parameters{
		SourceRemote: testSourceRemoteConstant,
		MainBranch:   testMainBranchConstant,
	}
}

func defaultOptions(parameters syncrepos.Parameters) syncrepos.Options {
	return syncrepos.Options{
		RepositoryPath: testRepositoryPathConstant,
		DisplayName:    testRepositoryNameConstant,
		Parameters:     parameters,
	}
}

func newService(testInstance *testing.T, executor *scriptedExecutor, inspector *stubInspector, prompter syncrepos.Prompter) *syncrepos.Service {
	service, creationError := syncrepos.NewService(syncrepos.Dependencies{
		GitExecutor: executor,
		Inspector:   inspector,
		Prompter:    prompter,
		Reporter:    &recordingReporter{},
	})
	require.NoError(testInstance, creationError)
	return service
}

func pullConflictFailure() error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result: execshell.ExecutionResult{
			ExitCode:       1,
			StandardOutput: "CONFLICT (content): Merge conflict in profile\nAutomatic merge failed; fix conflicts and then commit the result.",
		},
	}
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  syncrepos.Dependencies
		expectedError error
	}{
		{
			name:          "missing_executor",
			dependencies:  syncrepos.Dependencies{Inspector: &stubInspector{}},
			expectedError: syncrepos.ErrGitExecutorNotConfigured,
		},
		{
			name:          "missing_inspector",
			dependencies:  syncrepos.Dependencies{GitExecutor: &scriptedExecutor{}},
			expectedError: syncrepos.ErrInspectorNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, creationError := syncrepos.NewService(testCase.dependencies)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, service)
		})
	}
}

func TestSyncReportsNonRepositoryDirectories(testInstance *testing.T) {
	service := newService(testInstance, &scriptedExecutor{}, &stubInspector{isRepository: false}, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeNotRepository, outcome.Kind)
}

func TestSyncSkipsRepositoriesWithoutSourceRemote(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	inspector := &stubInspector{isRepository: true, remoteExists: false}
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeMissingSourceRemote, outcome.Kind)
	require.Empty(testInstance, executor.recordedCommands)
}

func TestSyncCleanRepositoryOnMainReportsNoChanges(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {result: execshell.ExecutionResult{StandardOutput: "Already up to date.\n"}},
	}}
	service := newService(testInstance, executor, cleanMainInspector(), nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.False(testInstance, outcome.ChangesPulled)
	require.False(testInstance, outcome.BranchSwitched)
	require.True(testInstance, executor.commandRan("fetch origin"))
	require.True(testInstance, executor.commandRan("pull origin main"))
	require.False(testInstance, executor.commandRan("checkout main"))
}

func TestSyncRepeatedRunsOnSyncedRepositoryStayUnchanged(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {result: execshell.ExecutionResult{StandardOutput: "Already up to date.\n"}},
	}}
	inspector := cleanMainInspector()
	inspector.tips = []string{testTipBeforeConstant, testTipBeforeConstant, testTipBeforeConstant, testTipBeforeConstant}
	service := newService(testInstance, executor, inspector, nil)

	for runIndex := 0; runIndex < 2; runIndex++ {
		outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
		require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
		require.False(testInstance, outcome.ChangesPulled)
	}
}

func TestSyncDetectsPulledChangesByTipComparison(testInstance *testing.T) {
	// The pull output deliberately contradicts the tip movement; the tips win.
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {result: execshell.ExecutionResult{StandardOutput: "Already up to date.\n"}},
	}}
	inspector := cleanMainInspector()
	inspector.tips = []string{testTipBeforeConstant, testTipAfterConstant}
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, outcome.ChangesPulled)
}

func TestSyncFallsBackToOutputHeuristicWhenTipsUnavailable(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {result: execshell.ExecutionResult{StandardOutput: "Updating aaaa..bbbb\n 3 files changed, 12 insertions(+)\n"}},
	}}
	inspector := cleanMainInspector()
	inspector.tipError = errors.New("rev-parse failed")
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, outcome.ChangesPulled)
}

func TestSyncSwitchesToMainAndRestoresFeatureBranch(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	inspector := cleanMainInspector()
	inspector.currentBranch = testFeatureBranchConstant
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, outcome.BranchSwitched)
	require.True(testInstance, executor.commandRan("checkout main"))
	require.True(testInstance, executor.commandRan("checkout feature/tmux"))
}

func TestSyncCreatesTrackingBranchWhenMainMissingLocally(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	inspector := cleanMainInspector()
	inspector.currentBranch = testFeatureBranchConstant
	inspector.localBranchKnown = false
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, executor.commandRan("checkout -b main --track origin/main"))
}

func TestSyncSkipsWhenBranchSwitchFailsWithoutPrompting(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"checkout main": {err: commandFailure(128, "error: pathspec 'main' did not match")},
	}}
	inspector := cleanMainInspector()
	inspector.currentBranch = testFeatureBranchConstant
	service := newService(testInstance, executor, inspector, nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSkipped, outcome.Kind)
	require.Equal(testInstance, "branch switch failed", outcome.Reason)
	require.False(testInstance, executor.commandRan("fetch origin"))
}

func TestSyncStaysOnCurrentBranchWhenOperatorAccepts(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"checkout main": {err: commandFailure(128, "error: pathspec 'main' did not match")},
	}}
	inspector := cleanMainInspector()
	inspector.currentBranch = testFeatureBranchConstant
	prompter := &scriptedPrompter{branchSwitchAction: syncrepos.BranchSwitchStay}

	parameters := defaultParameters()
	parameters.Verbose = true
	service := newService(testInstance, executor, inspector, prompter)

	outcome := service.Sync(context.Background(), defaultOptions(parameters))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, executor.commandRan("pull origin main"))
}

func TestSyncMirrorsToTargetRemoteWithoutAffectingOutcome(testInstance *testing.T) {
	testCases := []struct {
		name        string
		pushFailure error
	}{
		{name: "push_succeeds", pushFailure: nil},
		{name: "push_fails", pushFailure: commandFailure(1, "rejected")},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedExecutor{responses: map[string]scriptedResponse{
				"push --force-with-lease backup main": {err: testCase.pushFailure},
			}}
			parameters := defaultParameters()
			parameters.TargetRemote = testTargetRemoteConstant
			service := newService(testInstance, executor, cleanMainInspector(), nil)

			outcome := service.Sync(context.Background(), defaultOptions(parameters))
			require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
			require.True(testInstance, executor.commandRan("push --force-with-lease backup main"))
		})
	}
}

func TestSyncSkipsMirrorWhenNoTargetRemoteConfigured(testInstance *testing.T) {
	executor := &scriptedExecutor{}
	service := newService(testInstance, executor, cleanMainInspector(), nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	for _, recordedArguments := range executor.recordedCommands {
		require.NotEqual(testInstance, "push", recordedArguments[0])
	}
}

func TestSyncReportsFetchFailuresAsErrors(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"fetch origin": {err: commandFailure(128, "fatal: unable to access remote")},
	}}
	service := newService(testInstance, executor, cleanMainInspector(), nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeErrored, outcome.Kind)
	require.Contains(testInstance, outcome.Reason, "fetch failed")
}

func TestSyncReportsNonConflictPullFailuresAsErrors(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {err: commandFailure(1, "fatal: couldn't find remote ref main")},
	}}
	service := newService(testInstance, executor, cleanMainInspector(), nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeErrored, outcome.Kind)
	require.Contains(testInstance, outcome.Reason, "pull failed")
}

func TestSyncConflictNonVerboseSkipsAndAbortsMerge(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {err: pullConflictFailure()},
	}}
	service := newService(testInstance, executor, cleanMainInspector(), nil)

	outcome := service.Sync(context.Background(), defaultOptions(defaultParameters()))
	require.Equal(testInstance, syncrepos.OutcomeSkipped, outcome.Kind)
	require.Equal(testInstance, "merge conflict", outcome.Reason)
	require.True(testInstance, executor.commandRan("merge --abort"))
	require.False(testInstance, executor.commandRan("reset --hard origin/main"))
}

func TestSyncConflictVerboseResetDiscardsDivergence(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {err: pullConflictFailure()},
	}}
	prompter := &scriptedPrompter{conflictAction: syncrepos.ConflictReset}
	parameters := defaultParameters()
	parameters.Verbose = true
	service := newService(testInstance, executor, cleanMainInspector(), prompter)

	outcome := service.Sync(context.Background(), defaultOptions(parameters))
	require.Equal(testInstance, syncrepos.OutcomeSynced, outcome.Kind)
	require.True(testInstance, outcome.ChangesPulled)
	require.True(testInstance, executor.commandRan("reset --hard origin/main"))
}

func TestSyncConflictVerboseManualLeavesMergeInPlace(testInstance *testing.T) {
	executor := &scriptedExecutor{responses: map[string]scriptedResponse{
		"pull origin main": {err: pullConflictFailure()},
	}}
	prompter := &scriptedPrompter{conflictAction: syncrepos.ConflictManual}
	parameters := defaultParameters()
	parameters.Verbose = true
	service := newService(testInstance, executor, cleanMainInspector(), prompter)

	outcome := service.Sync(context.Background(), defaultOptions(parameters))
	require.Equal(testInstance, syncrepos.OutcomeSkipped, outcome.Kind)
	require.Contains(testInstance, outcome.Reason, "manual resolution")
	require.False(testInstance, executor.commandRan("merge --abort"))
}

func commandFailure(exitCode int, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError},
	}
}
