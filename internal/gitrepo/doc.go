// Package gitrepo inspects local git working copies through the git binary.
package gitrepo
