// Package discovery locates candidate repository directories on the local
// filesystem for batch processing.
package discovery
