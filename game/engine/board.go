package engine

import (
	"fmt"
	"strings"
)

// RenderBoard draws a matrix of powers (0 = empty) as an ASCII grid of values
func RenderBoard(board [][]int) string {
	if len(board) == 0 {
		return ""
	}

	line := "+" + strings.Repeat("------+", len(board[0]))
	var b strings.Builder
	b.WriteString(line + "\n")
	for _, row := range board {
		b.WriteString("|")
		for _, power := range row {
			if power == 0 {
				b.WriteString("      |")
			} else {
				fmt.Fprintf(&b, "%5d |", 1<<power)
			}
		}
		b.WriteString("\n" + line + "\n")
	}
	return b.String()
}

// String renders the grid as ASCII art
func (r *Round) String() string {
	return RenderBoard(r.State().Board)
}
