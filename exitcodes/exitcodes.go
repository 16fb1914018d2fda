// Package exitcodes defines the standard exit codes used by trx-reporter.
package exitcodes

// Exit code constants used by trx-reporter
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the run replayed cleanly and every test passed
// * TestFailure (1): Used when the document records one or more failed tests
// * RuntimeErr (2): Used for runtime errors such as unreadable event logs or
//   write failures on the output document
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
