// Package cmd implements the htmpl subcommands.
//
// Every command receives the parsed [Input] flags, which select the
// template search path, the data files, and the values rendered against.
package cmd
