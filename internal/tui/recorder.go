package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/alkime/captions/internal/tui/components/levelmeter"
	"github.com/alkime/captions/internal/tui/style"
	"github.com/alkime/captions/internal/wizard"
	"github.com/alkime/captions/pkg/uictl"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
)

const stopwatchInterval = 250 * time.Millisecond

// MeterWidth is how many level bars the recording widget draws.
const MeterWidth = 40

// RecorderControls are the optional gauges behind the recording widget.
type RecorderControls struct {
	// Meter feeds the level meter; nil draws a flat line.
	Meter uictl.Levels[float64]
	// Size reports encoded bytes against the cap; nil hides the progress bar.
	Size uictl.CappedDial[int64]
	// MaxDuration stops a recording automatically; zero means unlimited.
	MaxDuration time.Duration
}

// recorder is the recording widget shared by the Record and AddDetails steps.
// It mirrors the status the wizard reports for one target.
type recorder struct {
	target    wizard.Target
	controls  RecorderControls
	status    wizard.RecordingStatus
	spinner   spinner.Model
	stopwatch stopwatch.Model
	progress  progress.Model
	meter     levelmeter.Model
	// limitHit is set once a limit stop was issued for the current recording.
	limitHit bool
}

func newRecorder(target wizard.Target, controls RecorderControls) recorder {
	s := spinner.New()
	s.Spinner = spinner.Points

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return recorder{
		target:    target,
		controls:  controls,
		spinner:   s,
		stopwatch: stopwatch.NewWithInterval(stopwatchInterval),
		progress:  p,
		meter:     levelmeter.New(controls.Meter, MeterWidth, 3),
	}
}

// setStatus applies the wizard's status and starts or stops the clock.
func (r recorder) setStatus(status wizard.RecordingStatus) (recorder, tea.Cmd) {
	prev := r.status
	r.status = status

	switch {
	case status == wizard.StatusRecording && prev != wizard.StatusRecording:
		r.limitHit = false
		return r, tea.Batch(r.stopwatch.Reset(), r.stopwatch.Start(), r.spinner.Tick)
	case status != wizard.StatusRecording && prev == wizard.StatusRecording:
		return r, r.stopwatch.Stop()
	}

	return r, nil
}

func (r recorder) Update(msg tea.Msg) (recorder, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if r.status != wizard.StatusRecording {
			return r, nil
		}
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		r.stopwatch, cmd = r.stopwatch.Update(msg)
		return r, cmd
	}

	return r, nil
}

// limitReached reports whether the active recording hit its duration or size
// cap and has not been stopped for it yet.
func (r recorder) limitReached() bool {
	if r.status != wizard.StatusRecording || r.limitHit {
		return false
	}

	if r.controls.MaxDuration > 0 && r.stopwatch.Elapsed() >= r.controls.MaxDuration {
		return true
	}

	if r.controls.Size != nil {
		num, limit := r.controls.Size.Cap()
		if limit > 0 && num >= limit {
			return true
		}
	}

	return false
}

func (r recorder) recording() bool {
	return r.status == wizard.StatusRecording
}

func (r recorder) processing() bool {
	return r.status == wizard.StatusProcessing
}

func (r recorder) View(idleHint string) string {
	var sb strings.Builder

	switch r.status {
	case wizard.StatusRecording:
		sb.WriteString(r.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(style.Error.Render(r.status.String()))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(formatElapsed(r.stopwatch.Elapsed(), r.controls.MaxDuration)))
		sb.WriteString("\n\n")
		sb.WriteString(r.meter.View())

		if r.controls.Size != nil {
			current, limit := r.controls.Size.Cap()
			percent := float64(0)
			if limit > 0 {
				percent = float64(current) / float64(limit)
			}
			sb.WriteString("\n\n")
			sb.WriteString(r.progress.ViewAs(min(percent, 1)))
			sb.WriteString("\n")
			sb.WriteString(style.Subtitle.Render(formatBytes(current, limit)))
		}

	case wizard.StatusProcessing:
		sb.WriteString(style.Warning.Render(r.status.String()))

	default:
		sb.WriteString(style.Subtitle.Render(idleHint))
	}

	return sb.String()
}

func formatElapsed(elapsed, limit time.Duration) string {
	s := clock(elapsed)
	if limit > 0 {
		s += " / " + clock(limit)
	}

	return s
}

func clock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)

	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatBytes(current, maxBytes int64) string {
	currentMB := float64(current) / (1024 * 1024)
	maxMB := float64(maxBytes) / (1024 * 1024)

	if maxBytes == 0 {
		return fmt.Sprintf("%.1f MB / unlimited", currentMB)
	}

	percent := int(float64(current) / float64(maxBytes) * 100)

	return fmt.Sprintf("%.1f MB / %.1f MB (%d%%)", currentMB, maxMB, percent)
}
