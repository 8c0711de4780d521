package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true)

	styleTask = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	styleFail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Bold(true)
)
