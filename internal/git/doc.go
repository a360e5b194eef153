// Package git reads commit metadata for content files: the time a file was
// last changed and the commit the working tree is at. Everything here is
// best effort; content outside a repository simply has no timestamps.
package git
