// Package cli provides the twosync command-line client.
//
// It wires configuration, logging, the local SQLite cache and both sync
// pipelines, and exposes them as cobra commands. The same commands are
// available interactively through the `shell` REPL.
//
// Key features:
//   - sync / list / show / search over the local cache
//   - index / assistant / thread for the hosted OpenAI index
//   - credentials prompts that never echo secrets
//
// See NewRootCmd, App and runREPL for details.
package cli
