package syncrepos

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chessbyte/dotfiles/internal/utils"
)

const (
	workInProgressPromptTemplateConstant = "%s has uncommitted changes. [stash/commit/skip/status]? "
	commitMessagePromptTemplateConstant  = "Commit message for %s (blank for default): "
	branchSwitchPromptTemplateConstant   = "%s could not switch to %s. [skip/stay]? "
	conflictPromptTemplateConstant       = "%s has merge conflicts. [skip/reset/manual]? "

	stashChoiceLiteralConstant  = "stash"
	commitChoiceLiteralConstant = "commit"
	statusChoiceLiteralConstant = "status"
	stayChoiceLiteralConstant   = "stay"
	resetChoiceLiteralConstant  = "reset"
	manualChoiceLiteralConstant = "manual"
)

// WorkInProgressAction enumerates operator choices for a dirty working tree.
type WorkInProgressAction int

const (
	// WorkInProgressSkip leaves the repository untouched.
	WorkInProgressSkip WorkInProgressAction = iota
	// WorkInProgressStash stashes local changes and continues syncing.
	WorkInProgressStash
	// WorkInProgressCommit commits local changes and continues syncing.
	WorkInProgressCommit
	// WorkInProgressShowStatus re-renders the full status and asks again.
	WorkInProgressShowStatus
)

// BranchSwitchAction enumerates operator choices after a failed branch switch.
type BranchSwitchAction int

const (
	// BranchSwitchSkip abandons the repository.
	BranchSwitchSkip BranchSwitchAction = iota
	// BranchSwitchStay continues the sync on the current branch.
	BranchSwitchStay
)

// ConflictAction enumerates operator choices after a conflicted merge-pull.
type ConflictAction int

const (
	// ConflictSkip abandons the repository, restoring the pre-merge state.
	ConflictSkip ConflictAction = iota
	// ConflictReset discards local divergence by resetting to the source branch.
	ConflictReset
	// ConflictManual leaves the conflict in place for manual resolution.
	ConflictManual
)

// Prompter collects operator decisions when automatic resolution is not safely possible.
type Prompter interface {
	SelectWorkInProgressAction(repositoryName string) (WorkInProgressAction, error)
	RequestCommitMessage(repositoryName string) (string, error)
	SelectBranchSwitchAction(repositoryName string, branchName string) (BranchSwitchAction, error)
	SelectConflictAction(repositoryName string) (ConflictAction, error)
}

// IOPrompter reads operator responses from an io.Reader, writing prompts to an io.Writer.
type IOPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	return &IOPrompter{reader: bufio.NewReader(input), writer: utils.NewFlushingWriter(output)}
}

// SelectWorkInProgressAction asks how to proceed with a dirty working tree.
// Unrecognized responses degrade to skipping.
func (prompter *IOPrompter) SelectWorkInProgressAction(repositoryName string) (WorkInProgressAction, error) {
	response, promptError := prompter.askChoice(workInProgressPromptTemplateConstant, repositoryName)
	if promptError != nil {
		return WorkInProgressSkip, promptError
	}

	switch response {
	case stashChoiceLiteralConstant:
		return WorkInProgressStash, nil
	case commitChoiceLiteralConstant:
		return WorkInProgressCommit, nil
	case statusChoiceLiteralConstant:
		return WorkInProgressShowStatus, nil
	default:
		return WorkInProgressSkip, nil
	}
}

// RequestCommitMessage asks for a commit message; a blank response means the caller's default applies.
func (prompter *IOPrompter) RequestCommitMessage(repositoryName string) (string, error) {
	response, promptError := prompter.ask(commitMessagePromptTemplateConstant, repositoryName)
	if promptError != nil {
		return "", promptError
	}
	return strings.TrimSpace(response), nil
}

// SelectBranchSwitchAction asks whether to skip the repository or continue on the current branch.
func (prompter *IOPrompter) SelectBranchSwitchAction(repositoryName string, branchName string) (BranchSwitchAction, error) {
	response, promptError := prompter.askChoice(branchSwitchPromptTemplateConstant, repositoryName, branchName)
	if promptError != nil {
		return BranchSwitchSkip, promptError
	}

	if response == stayChoiceLiteralConstant {
		return BranchSwitchStay, nil
	}
	return BranchSwitchSkip, nil
}

// SelectConflictAction asks how to resolve a conflicted merge-pull.
func (prompter *IOPrompter) SelectConflictAction(repositoryName string) (ConflictAction, error) {
	response, promptError := prompter.askChoice(conflictPromptTemplateConstant, repositoryName)
	if promptError != nil {
		return ConflictSkip, promptError
	}

	switch response {
	case resetChoiceLiteralConstant:
		return ConflictReset, nil
	case manualChoiceLiteralConstant:
		return ConflictManual, nil
	default:
		return ConflictSkip, nil
	}
}

func (prompter *IOPrompter) askChoice(promptTemplate string, promptArguments ...any) (string, error) {
	response, promptError := prompter.ask(promptTemplate, promptArguments...)
	if promptError != nil {
		return "", promptError
	}
	return strings.TrimSpace(strings.ToLower(response)), nil
}

func (prompter *IOPrompter) ask(promptTemplate string, promptArguments ...any) (string, error) {
	if prompter.writer != nil {
		prompt := fmt.Sprintf(promptTemplate, promptArguments...)
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}

	return response, nil
}
