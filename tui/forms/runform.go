package forms

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/pkg/timeutil"
)

// RunFormResult holds the editable settings of a batch. Leniencies are text
// so they can be typed as seconds or MM:SS.
type RunFormResult struct {
	Quality       string
	StartLeniency string
	EndLeniency   string
	MinDuration   string
}

// NewRunFormResult pre-fills the form from the current settings.
func NewRunFormResult(q clip.Quality, p clip.OffsetPolicy) *RunFormResult {
	format := func(s float64) string { return strconv.FormatFloat(s, 'f', -1, 64) }
	return &RunFormResult{
		Quality:       q.String(),
		StartLeniency: format(p.StartLeniency),
		EndLeniency:   format(p.EndLeniency),
		MinDuration:   format(p.MinDuration),
	}
}

// Settings converts the form values back into typed settings.
func (r *RunFormResult) Settings() (clip.Quality, clip.OffsetPolicy, error) {
	q, err := clip.ParseQuality(r.Quality)
	if err != nil {
		return q, clip.OffsetPolicy{}, err
	}
	var p clip.OffsetPolicy
	fields := []struct {
		name string
		in   string
		out  *float64
	}{
		{"start leniency", r.StartLeniency, &p.StartLeniency},
		{"end leniency", r.EndLeniency, &p.EndLeniency},
		{"minimum duration", r.MinDuration, &p.MinDuration},
	}
	for _, f := range fields {
		v, err := timeutil.ParseTimeToSeconds(f.in)
		if err != nil {
			return q, p, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.out = v
	}
	return q, p, p.Validate()
}

func validateSeconds(s string) error {
	v, err := timeutil.ParseTimeToSeconds(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// NewRunForm builds the settings form bound to result.
func NewRunForm(result *RunFormResult) *huh.Form {
	options := make([]huh.Option[string], 0, len(clip.Qualities))
	for _, q := range clip.Qualities {
		label := fmt.Sprintf("%s (%.0f%% of source bitrate)", q, q.Multiplier()*100)
		options = append(options, huh.NewOption(label, q.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Quality").
				Options(options...).
				Value(&result.Quality),

			huh.NewInput().
				Title("Start leniency").
				Description("Seconds added before each clip").
				Value(&result.StartLeniency).
				Validate(validateSeconds),

			huh.NewInput().
				Title("End leniency").
				Description("Seconds added after each clip").
				Value(&result.EndLeniency).
				Validate(validateSeconds),

			huh.NewInput().
				Title("Minimum duration").
				Description("Short clips are extended to this length").
				Value(&result.MinDuration).
				Validate(validateSeconds),
		),
	).WithTheme(Theme())
}
