// Package logger is a small ANSI console logger used for startup banners,
// tagged info/warn/error lines, and shutdown stats. It is not structured
// (no JSON handler, no levels config) by design — this service's logging
// needs are operational narration, not a queryable log pipeline.
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"
)

var useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func colorize(color, text string) string {
	if !useColors {
		return text
	}
	return color + text + reset
}

func timestamp() string {
	return colorize(dim, time.Now().Format("15:04:05"))
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}

	fmt.Println()
	fmt.Println(colorize(cyan+bold, "  ╔═══════════════════════════════════════╗"))
	fmt.Println(colorize(cyan+bold, "  ║") + colorize(yellow+bold, "       ECON PRICER ") + colorize(dim, version) + colorize(cyan+bold, strings.Repeat(" ", 19-len(version))+"║"))
	fmt.Println(colorize(cyan+bold, "  ║") + colorize(dim, "      Dynamic Pricing Engine          ") + colorize(cyan+bold, "║"))
	fmt.Println(colorize(cyan+bold, "  ╚═══════════════════════════════════════╝"))
	fmt.Println()
}

// Info prints an info message.
func Info(tag, msg string) {
	icon := colorize(blue, "●")
	tagStr := colorize(cyan, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), icon, tagStr, msg)
}

// Success prints a success message.
func Success(tag, msg string) {
	icon := colorize(green, "✓")
	tagStr := colorize(green, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), icon, tagStr, msg)
}

// Warn prints a warning message.
func Warn(tag, msg string) {
	icon := colorize(yellow, "⚠")
	tagStr := colorize(yellow, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), icon, tagStr, msg)
}

// Error prints an error message.
func Error(tag, msg string) {
	icon := colorize(red, "✗")
	tagStr := colorize(red, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s\n", timestamp(), icon, tagStr, msg)
}

// Loading prints a loading message without a trailing newline; pair with Done.
func Loading(tag, msg string) {
	icon := colorize(magenta, "◐")
	tagStr := colorize(magenta, fmt.Sprintf("[%s]", tag))
	fmt.Printf("%s %s %s %s", timestamp(), icon, tagStr, msg)
}

// Done completes a Loading line.
func Done(details string) {
	if details != "" {
		fmt.Printf(" %s\n", colorize(dim, details))
		return
	}
	fmt.Println()
}

// Server prints the "listening" banner for addr; main calls it just before
// starting the HTTP listener.
func Server(addr string) {
	fmt.Println()
	icon := colorize(green+bold, "►")
	fmt.Printf("%s %s Server running at %s\n", timestamp(), icon, colorize(cyan+bold, "http://"+addr))
	fmt.Printf("%s   %s\n", strings.Repeat(" ", 8), colorize(dim, "Press Ctrl+C to stop"))
	fmt.Println()
}

// Section prints a section header, used to separate startup/shutdown phases.
func Section(title string) {
	fmt.Printf("\n%s %s\n", colorize(dim, "───"), colorize(white+bold, title))
}

// Stats prints one labeled statistic. Integer-ish values are rendered
// comma-grouped and durations rendered in words via humanize, so counter
// and uptime values stay readable at a glance.
func Stats(label string, value interface{}) {
	fmt.Printf("    %s %s %s\n", colorize(dim, "•"), colorize(dim, label+":"), colorize(white, formatStat(value)))
}

func formatStat(value interface{}) string {
	switch v := value.(type) {
	case uint64:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	case int:
		return humanize.Comma(int64(v))
	case time.Duration:
		return humanize.RelTime(time.Now().Add(-v), time.Now(), "", "")
	default:
		return fmt.Sprint(v)
	}
}
