package main

import (
	"fmt"
	"io"
	"os"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBold   = "\033[1m"
)

// CLI output goes to stderr so piped stdout stays clean (ask prints the
// tutor's reply on stdout). Tests swap this writer to capture output.
var outW io.Writer = os.Stderr

func paint(code, text string) string {
	if noColor {
		return text
	}
	return code + text + ansiReset
}

func printTagged(code, tag, format string, args ...any) {
	fmt.Fprintln(outW, paint(code, tag+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) {
	printTagged(ansiGreen, "✓", format, args...)
}

func printError(format string, args ...any) {
	printTagged(ansiRed, "✗", format, args...)
}

func printWarning(format string, args ...any) {
	printTagged(ansiYellow, "⚠", format, args...)
}

// printStatus renders a labeled value line, as used by status, tutors and
// config list.
func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(outW, "  %s %s\n", paint(ansiBold, label+":"), fmt.Sprintf(format, args...))
}
