// Package builddir owns the output directory. Reset replaces it with an empty
// directory; Stage lets a build write into a sibling directory that replaces
// the output only on Commit.
//
// Replacement is done with two renames: the old directory moves to a
// "<dir>.prev-<id>" sibling and a prepared "<dir>.staging-<id>" sibling takes
// its place. If the filesystem refuses a rename, Reset falls back to removing
// and recreating the directory.
package builddir
