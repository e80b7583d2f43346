package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/chessbyte/dotfiles/internal/execshell"
	"github.com/chessbyte/dotfiles/internal/repos/shared"
)

const (
	gitMetadataDirectoryNameConstant      = ".git"
	gitRemoteSubcommandConstant           = "remote"
	gitStatusSubcommandConstant           = "status"
	gitStatusPorcelainFlagConstant        = "--porcelain"
	gitBranchSubcommandConstant           = "branch"
	gitBranchShowCurrentFlagConstant      = "--show-current"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitRevParseVerifyFlagConstant         = "--verify"
	gitRevParseQuietFlagConstant          = "--quiet"
	localBranchReferencePrefixConstant    = "refs/heads/"
	untrackedStatusPrefixConstant         = "??"
	gitExecutorMissingMessageConstant     = "git executor not configured"
	gitTerminalPromptEnvironmentName      = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisable   = "0"
	// UnknownBranchNameConstant is reported when the current branch cannot be determined.
	UnknownBranchNameConstant = "unknown"
)

// ErrGitExecutorNotConfigured indicates the inspector was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// RepositoryInspector answers read-only questions about a working copy.
type RepositoryInspector struct {
	executor shared.GitExecutor
}

// NewRepositoryInspector constructs a RepositoryInspector around the provided executor.
func NewRepositoryInspector(executor shared.GitExecutor) (*RepositoryInspector, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryInspector{executor: executor}, nil
}

// IsRepository reports whether the directory carries git metadata.
func (inspector *RepositoryInspector) IsRepository(repositoryPath string) bool {
	_, statError := os.Stat(filepath.Join(repositoryPath, gitMetadataDirectoryNameConstant))
	return statError == nil
}

// RemoteExists reports whether the named remote is configured in the working copy.
func (inspector *RepositoryInspector) RemoteExists(executionContext context.Context, repositoryPath string, remoteName string) (bool, error) {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if executionError != nil {
		if isCommandFailure(executionError) {
			return false, nil
		}
		return false, executionError
	}

	for _, configuredRemoteName := range strings.Split(executionResult.StandardOutput, "\n") {
		if strings.TrimSpace(configuredRemoteName) == remoteName {
			return true, nil
		}
	}
	return false, nil
}

// HasUncommittedChanges reports whether the working tree contains any uncommitted entries.
func (inspector *RepositoryInspector) HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// OnlyUntrackedChanges reports whether every dirty working tree entry is untracked.
func (inspector *RepositoryInspector) OnlyUntrackedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}

	statusLines := strings.Split(strings.TrimSpace(executionResult.StandardOutput), "\n")
	sawEntry := false
	for _, statusLine := range statusLines {
		if len(strings.TrimSpace(statusLine)) == 0 {
			continue
		}
		sawEntry = true
		if !strings.HasPrefix(statusLine, untrackedStatusPrefixConstant) {
			return false, nil
		}
	}
	return sawEntry, nil
}

// CurrentBranch returns the checked-out branch name, or "unknown" when it cannot be determined.
func (inspector *RepositoryInspector) CurrentBranch(executionContext context.Context, repositoryPath string) string {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitBranchSubcommandConstant, gitBranchShowCurrentFlagConstant)
	if executionError != nil {
		return UnknownBranchNameConstant
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if len(branchName) == 0 {
		return UnknownBranchNameConstant
	}
	return branchName
}

// LocalBranchExists reports whether a local branch with the given name exists.
func (inspector *RepositoryInspector) LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) bool {
	_, executionError := inspector.executeGit(
		executionContext,
		repositoryPath,
		gitRevParseSubcommandConstant,
		gitRevParseVerifyFlagConstant,
		gitRevParseQuietFlagConstant,
		localBranchReferencePrefixConstant+branchName,
	)
	return executionError == nil
}

// BranchTip resolves a reference to its commit identifier.
func (inspector *RepositoryInspector) BranchTip(executionContext context.Context, repositoryPath string, reference string) (string, error) {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, reference)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// StatusSummary returns the human-readable working tree status.
func (inspector *RepositoryInspector) StatusSummary(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := inspector.executeGit(executionContext, repositoryPath, gitStatusSubcommandConstant)
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

func (inspector *RepositoryInspector) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return inspector.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentName: gitTerminalPromptEnvironmentDisable},
	})
}

func isCommandFailure(executionError error) bool {
	var commandFailure execshell.CommandFailedError
	return errors.As(executionError, &commandFailure)
}
