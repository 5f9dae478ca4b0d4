// Package forms provides the huh forms shown before a batch starts.
package forms

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// NewConfirmRunForm asks whether to start encoding total clips.
func NewConfirmRunForm(total, matched int, proceed *bool) *huh.Form {
	desc := fmt.Sprintf("%d clips queued, %d recordings in the catalog.", total, matched)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start encoding?").
				Description(desc).
				Affirmative("Start").
				Negative("Cancel").
				Value(proceed),
		),
	).WithTheme(Theme())
}
