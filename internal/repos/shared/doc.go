// Package shared holds the small contracts reused across repository services:
// the git executor boundary, directory listing, progress reporting, and the
// interaction policy derived from verbosity.
package shared
