// SPDX-License-Identifier: MPL-2.0

// Package sshserver serves the module catalog over SSH using Wish.
// Clients authenticate with a server-issued access token as the password and
// run read-only catalog commands; the command line of each session is passed
// to a Handler supplied by the caller.
package sshserver
