package client

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/skip2/go-qrcode"
)

var (
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	labelStyle   = lipgloss.NewStyle().Width(10)
	barWidth     = 30
	barFilled    = "█"
	barRemaining = "░"
)

// TerminalView renders the controller as lines on a terminal.
type TerminalView struct {
	mu      sync.Mutex
	out     io.Writer
	qr      bool
	onLine  bool
	results chan Preview
	errors  chan string
}

// NewTerminalView writes to out. With qr set the download URL is also
// printed as a QR code.
func NewTerminalView(out io.Writer, qr bool) *TerminalView {
	return &TerminalView{
		out:     out,
		qr:      qr,
		results: make(chan Preview, 1),
		errors:  make(chan string, 1),
	}
}

// Results delivers each preview once it is shown.
func (v *TerminalView) Results() <-chan Preview { return v.results }

// Errors delivers each error message once it is shown.
func (v *TerminalView) Errors() <-chan string { return v.errors }

func (v *TerminalView) SetBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if busy {
		v.endLine()
		fmt.Fprintln(v.out, mutedStyle.Render("Processing..."))
	}
}

func (v *TerminalView) ShowProgress(p Progress) { v.SetProgress(p) }

func (v *TerminalView) SetProgress(p Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "\r%s %3.0f%% %s", renderBar(p.Percent), p.Percent, p.Label)
	v.onLine = true
}

func (v *TerminalView) ShowResult(p Preview) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()

	fmt.Fprintln(v.out, titleStyle.Render("Your styled "+string(p.Kind)+" is ready"))
	fmt.Fprintln(v.out, labelStyle.Render("Preview:")+p.SourceURL)
	fmt.Fprintln(v.out, labelStyle.Render("Download:")+p.DownloadURL)
	if v.qr && p.DownloadURL != "" {
		code, err := qrcode.New(p.DownloadURL, qrcode.Medium)
		if err != nil {
			fmt.Fprintln(v.out, mutedStyle.Render("QR code unavailable: "+err.Error()))
		} else {
			fmt.Fprint(v.out, code.ToSmallString(false))
		}
	}

	select {
	case v.results <- p:
	default:
	}
}

func (v *TerminalView) ShowError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
	fmt.Fprintln(v.out, errorStyle.Render("Error: "+msg))

	select {
	case v.errors <- msg:
	default:
	}
}

func (v *TerminalView) HideAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
}

func (v *TerminalView) ShowFileInfo(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
	fmt.Fprintln(v.out, mutedStyle.Render(text))
}

// The terminal has no persistent input or drop zone.
func (v *TerminalView) ClearFileInfo() {}
func (v *TerminalView) ClearSelection() {}
func (v *TerminalView) SetHighlight(on bool) {}

func (v *TerminalView) endLine() {
	if v.onLine {
		fmt.Fprintln(v.out)
		v.onLine = false
	}
}

func renderBar(percent float64) string {
	filled := int(percent / 100 * float64(barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return barStyle.Render(strings.Repeat(barFilled, filled)) + strings.Repeat(barRemaining, barWidth-filled)
}
