// Package executor runs resolved experiment cases one after another.
//
// Every case moves through Created, Setup, Running and then Completed or
// Failed, and is finally Cleared. A failing or panicking case is recorded
// in its group's error stream and never stops the run. When all cases are
// done the result streams are closed and the optional join case runs.
package executor
