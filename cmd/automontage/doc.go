// Package main hosts the automontage CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation and
// hands it to the run, music, history, status and config commands. Heavy
// lifting lives in internal/montage and friends; commands here only parse
// flags, render tables and report outcomes.
package main
