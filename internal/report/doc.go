// Package report renders simulation results for the terminal.
//
// Charts are drawn with asciigraph; tables and highlights use lipgloss.
// Nothing here touches the numerical packages' state: every function takes
// plain rows and returns a string.
package report
