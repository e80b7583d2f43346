package shared

import (
	"context"

	"github.com/chessbyte/dotfiles/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the default upstream remote.
	OriginRemoteNameConstant = "origin"
	// MainBranchNameConstant identifies the default integration branch.
	MainBranchNameConstant = "main"
)

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryLister locates candidate repository directories for bulk operations.
type RepositoryLister interface {
	ListCandidateDirectories(rootDirectory string) ([]string, error)
}
