package syncrepos

// Parameters holds the effective settings for one sync run.
type Parameters struct {
	SourceRemote string
	TargetRemote string
	MainBranch   string
	Verbose      bool
}

// OutcomeKind enumerates the terminal classifications of processing one directory.
type OutcomeKind int

const (
	// OutcomeNotRepository marks a directory without version-control metadata.
	OutcomeNotRepository OutcomeKind = iota
	// OutcomeMissingSourceRemote marks a repository lacking the configured source remote.
	OutcomeMissingSourceRemote
	// OutcomeSkipped marks a repository deliberately left untouched.
	OutcomeSkipped
	// OutcomeErrored marks a repository whose processing failed.
	OutcomeErrored
	// OutcomeSynced marks a repository brought in line with the source remote.
	OutcomeSynced
)

// Outcome is the tagged result of processing one repository.
type Outcome struct {
	Kind                  OutcomeKind
	Reason                string
	ChangesPulled         bool
	WorkInProgressHandled bool
	BranchSwitched        bool
}

func skippedOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func erroredOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeErrored, Reason: message}
}

func syncedOutcome(changesPulled bool) Outcome {
	return Outcome{Kind: OutcomeSynced, ChangesPulled: changesPulled}
}

// RunStatistics aggregates the counters reported at the end of a run.
type RunStatistics struct {
	RepositoriesFound     int
	Synced                int
	SyncedWithChanges     int
	SyncedNoChange        int
	Skipped               int
	Errors                int
	WorkInProgressHandled int
	BranchSwitches        int
}

// Apply folds one repository outcome into the running counters.
func (statistics *RunStatistics) Apply(outcome Outcome) {
	if outcome.Kind == OutcomeNotRepository {
		return
	}

	statistics.RepositoriesFound++
	if outcome.WorkInProgressHandled {
		statistics.WorkInProgressHandled++
	}
	if outcome.BranchSwitched {
		statistics.BranchSwitches++
	}

	switch outcome.Kind {
	case OutcomeMissingSourceRemote, OutcomeSkipped:
		statistics.Skipped++
	case OutcomeErrored:
		statistics.Errors++
	case OutcomeSynced:
		statistics.Synced++
		if outcome.ChangesPulled {
			statistics.SyncedWithChanges++
		} else {
			statistics.SyncedNoChange++
		}
	}
}
