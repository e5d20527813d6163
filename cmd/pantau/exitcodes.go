package main

// Exit codes for the CLI
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitConfigError     = 2
	ExitValidationError = 3
	ExitNotFound        = 4
)
