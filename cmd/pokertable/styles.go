package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokertable/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	redCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	blackCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

func renderCards(cards []poker.Card) string {
	if len(cards) == 0 {
		return mutedStyle.Render("--")
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := blackCardStyle
		if s := c.Suit(); s == poker.Hearts || s == poker.Diamonds {
			style = redCardStyle
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, " ")
}

func renderNet(n int) string {
	switch {
	case n > 0:
		return winStyle.Render("+" + strconv.Itoa(n))
	case n < 0:
		return lossStyle.Render(strconv.Itoa(n))
	}
	return mutedStyle.Render("0")
}
