// Package ui prints the progress banner and status lines for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Header prints a boxed title line.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress line, e.g. "[2/4] Replaying events".
func Step(n, total int, text string) {
	stepColor.Printf("[%d/%d] ", n, total)
	fmt.Println(text)
}

// Success prints a green checkmark line.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a plain status line.
func Info(text string) {
	infoColor.Printf("  %s\n", text)
}

// Warning prints a yellow warning line.
func Warning(text string) {
	warnColor.Printf("⚠ %s\n", text)
}

// Error prints a red error line.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText returns text wrapped in blue for inline use.
func BlueText(text string) string {
	return stepColor.Sprint(text)
}

// YellowText returns text wrapped in yellow for inline use.
func YellowText(text string) string {
	return warnColor.Sprint(text)
}

// center pads text on the left so it sits in the middle of width. Text wider
// than width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
