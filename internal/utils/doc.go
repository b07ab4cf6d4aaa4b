// Package utils hosts shared infrastructure for the CLI: the Viper
// configuration loader and the zap logger factory.
package utils
