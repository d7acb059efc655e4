// Package ui renders sync progress on the console.
//
// Interactive terminals get a bubbletea [ProgressModel]: a spinner, an overall bar ("Updating N artists") and a bar
// for the artist being processed, labeled with its current step. Each finished artist prints a result line above
// the bars (see [ResultLines]). ctrl+c cancels the run's context.
//
// Non-interactive output uses [PrintPlain], which writes the same result lines sequentially.
package ui
