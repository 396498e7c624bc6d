// Package main hosts the cinematch CLI entrypoint and command graph.
//
// The Cobra command tree answers similarity lookups from the terminal,
// resolves single posters, searches catalog titles, converts dataset
// artifacts, and runs the web UI. Configuration resolution, logger setup and
// dataset loading are centralized in commandContext so subcommands only
// render results.
package main
