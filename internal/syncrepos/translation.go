package syncrepos

import (
	"errors"
	"strings"

	"github.com/chessbyte/dotfiles/internal/execshell"
)

const (
	conflictMarkerConstant              = "CONFLICT"
	automaticMergeFailedMarkerConstant  = "Automatic merge failed"
	alreadyUpToDatePhraseConstant       = "already up to date"
	alreadyUpToDateLegacyPhraseConstant = "already up-to-date"
	changedFilesPhraseConstant          = "changed"
	filePhraseConstant                  = "file"
	minimalChangeOutputLengthConstant   = 20
)

// PullClassification is the enumerated interpretation of a merge-pull attempt.
type PullClassification int

const (
	// PullNoChanges indicates the pull succeeded without touching the working copy.
	PullNoChanges PullClassification = iota
	// PullChanges indicates the pull succeeded and brought in new commits.
	PullChanges
	// PullConflict indicates the pull failed with merge conflicts.
	PullConflict
	// PullFailure indicates the pull failed without conflicts.
	PullFailure
)

// ClassifyPullFailure inspects a failed pull invocation and separates merge
// conflicts from other failures. The combined output of the failed command is
// returned for diagnostics.
func ClassifyPullFailure(pullError error) (PullClassification, string) {
	var commandFailure execshell.CommandFailedError
	if !errors.As(pullError, &commandFailure) {
		return PullFailure, pullError.Error()
	}

	combinedOutput := commandFailure.Result.StandardOutput + "\n" + commandFailure.Result.StandardError
	if OutputIndicatesConflict(combinedOutput) {
		return PullConflict, combinedOutput
	}
	return PullFailure, strings.TrimSpace(commandFailure.Result.StandardError)
}

// OutputIndicatesConflict reports whether pull output carries merge conflict markers.
func OutputIndicatesConflict(output string) bool {
	return strings.Contains(output, conflictMarkerConstant) || strings.Contains(output, automaticMergeFailedMarkerConstant)
}

// ClassifyPullOutput applies the free-text heuristic over successful pull
// output. It is the fallback used only when commit identifiers could not be
// compared before and after the pull.
func ClassifyPullOutput(output string) PullClassification {
	normalizedOutput := strings.ToLower(strings.TrimSpace(output))
	if strings.Contains(normalizedOutput, alreadyUpToDatePhraseConstant) || strings.Contains(normalizedOutput, alreadyUpToDateLegacyPhraseConstant) {
		return PullNoChanges
	}
	if len(normalizedOutput) > minimalChangeOutputLengthConstant &&
		strings.Contains(normalizedOutput, filePhraseConstant) &&
		strings.Contains(normalizedOutput, changedFilesPhraseConstant) {
		return PullChanges
	}
	return PullNoChanges
}
