package ui

import "github.com/fatih/color"

// General Purpose Colors
var (
	InfoColor    = color.New(color.FgCyan).SprintFunc()
	SuccessColor = color.New(color.FgGreen).SprintFunc()
	WarningColor = color.New(color.FgYellow).SprintFunc()
	ErrorColor   = color.New(color.FgRed).SprintFunc()
	DetailColor  = color.New(color.FgHiBlack).SprintFunc()
)

// Command line colors
var (
	VariableColor = color.New(color.FgMagenta).SprintFunc()
	BinaryColor   = color.New(color.FgBlue, color.Bold).SprintFunc()
	ArgumentColor = color.New(color.FgWhite).SprintFunc()
)

var HeaderColor = color.New(color.FgGreen, color.Bold).SprintFunc()
