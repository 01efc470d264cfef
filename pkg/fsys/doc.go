// Package fsys provides the filesystem capabilities that rules are evaluated
// against: stat, glob expansion, and whole-file reads.
//
// All names are slash-separated and relative to a base directory. A
// [FileSystem] opened with [OpenDir] is backed by an [os.Root], so rules can
// never reach outside of the directory they were pointed at.
//
// Glob patterns use the [github.com/bmatcuk/doublestar/v4] syntax, which adds
// `**` (any number of directories) and `{a,b}` alternation to the usual
// [path.Match] rules.
package fsys
