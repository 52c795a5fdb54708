package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/carprice/internal/service"
)

// StepProgress renders a job's steps as a progress bar.
type StepProgress struct {
	bar   *progressbar.ProgressBar
	steps map[string]int
	done  int
}

// NewStepProgress creates a bar over steps. The description names the current step.
func NewStepProgress(w io.Writer, title string, steps []string) *StepProgress {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s] = i
	}

	bar := progressbar.NewOptions(len(steps),
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", title)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return &StepProgress{bar: bar, steps: index}
}

// Func returns the callback jobs report their steps to. Entering a step completes every
// step before it.
func (p *StepProgress) Func() service.ProgressFunc {
	return func(step string) {
		i, ok := p.steps[step]
		if !ok || i < p.done {
			return
		}
		p.advance(i)
		p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", step))
	}
}

// Finish completes the bar.
func (p *StepProgress) Finish() {
	p.advance(len(p.steps))
}

func (p *StepProgress) advance(to int) {
	if to <= p.done {
		return
	}
	if err := p.bar.Set(to); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.done = to
}
