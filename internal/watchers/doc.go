// Package watchers implements the copy-watchers command: it snapshots
// the issues one account already watches and subscribes that account
// to every issue watched by another account.
package watchers
