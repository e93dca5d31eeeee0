// Package ui builds the Fyne interface: URL row, settings form, preview
// table and activity log.
package ui
