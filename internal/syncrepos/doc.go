// Package syncrepos brings local git working copies in line with a configured
// source remote, optionally mirroring the result to a target remote.
//
// The Service runs the per-repository state machine, the Orchestrator walks a
// set of candidate directories and aggregates statistics, and the IOPrompter
// collects operator decisions when automatic resolution is not safe.
package syncrepos
