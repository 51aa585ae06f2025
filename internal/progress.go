package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(4)

	originStyles = map[Origin]lipgloss.Style{
		OriginDefault:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		OriginPersonal: lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true),
		OriginCustom:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	}
)

// ShowProgress runs fn behind a spinner on terminals. Elsewhere the message
// is logged and fn runs directly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}

	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s", progressStyle.Render(spinnerChars[i%len(spinnerChars)]), message)
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	close(stop)
	<-spinnerDone

	if err != nil {
		fmt.Fprintf(os.Stderr, "\r%s %s\n", errorStyle.Render("✗"), message)
		return err
	}
	fmt.Fprintf(os.Stderr, "\r%s %s\n", successStyle.Render("✓"), message)
	return nil
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// FormatRecord renders one numbered record for listing. Styling is only
// applied when w is a terminal.
func FormatRecord(w io.Writer, index int, r Record) string {
	badge := ""
	if r.Origin != "" && r.Origin != OriginDefault {
		badge = " [" + string(r.Origin) + "]"
	}
	head := fmt.Sprintf("%2d. %s%s  (%s)", index, r.Name, badge, r.ID)
	body := strings.ReplaceAll(r.Detail, "\n", "\n    ")
	if !isTerminal(w) {
		return head + "\n    " + body + "\n"
	}
	style, ok := originStyles[r.Origin]
	if !ok {
		style = originStyles[OriginDefault]
	}
	return fmt.Sprintf("%2d. %s%s  %s\n%s\n", index, nameStyle.Render(r.Name), style.Render(badge), style.Render("("+r.ID+")"), detailStyle.Render(r.Detail))
}

// FormatOption renders an encounter option with its origin.
func FormatOption(w io.Writer, o Option) string {
	if o.Origin != OriginCustom {
		return o.Value
	}
	if !isTerminal(w) {
		return o.Value + " [custom]"
	}
	return o.Value + " " + originStyles[OriginCustom].Render("[custom]")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
