// Package affirm implements the confidence-banded policy that decides whether
// a classified context can be accepted outright or needs user confirmation.
package affirm

import (
	"github.com/sayboard/sayboard/internal/model"
)

// Confidence band boundaries.
const (
	autoAcceptThreshold   = 0.85
	quickConfirmThreshold = 0.60
	disambiguateThreshold = 0.30
)

// maxDisambiguationChoices caps the multi-choice prompt at the primary plus
// two secondary candidates.
const maxDisambiguationChoices = 3

// Context decides how to affirm a classification.
//
// The unknown/feelings category bypasses affirmation entirely: a selfie frame
// needs no confirmation prompt, and stalling a child mid-expression to ask
// one would defeat the point.
func Context(c model.Classification) model.Affirmation {
	if c.Primary == model.ContextUnknown {
		ctx := c.Primary
		return model.Affirmation{
			Affirmed:     true,
			Method:       model.AffirmAuto,
			FinalContext: &ctx,
		}
	}

	switch {
	case c.Confidence >= autoAcceptThreshold:
		ctx := c.Primary
		return model.Affirmation{
			Affirmed:     true,
			Method:       model.AffirmAuto,
			FinalContext: &ctx,
		}

	case c.Confidence >= quickConfirmThreshold:
		ctx := c.Primary
		return model.Affirmation{
			Method: model.AffirmQuickConfirm,
			ShowUI: true,
			UI: &model.PromptSpec{
				Type:   model.PromptBinary,
				Prompt: "Are you at a " + c.Primary.Format() + "?",
				Options: []model.PromptOption{
					{Label: "Yes", Icon: "✓", Context: &ctx},
					{Label: "No", Icon: "✗", Action: "show_alternatives"},
				},
			},
		}

	case c.Confidence >= disambiguateThreshold:
		choices := append([]model.ContextType{c.Primary}, c.Secondary...)
		if len(choices) > maxDisambiguationChoices {
			choices = choices[:maxDisambiguationChoices]
		}
		options := make([]model.PromptOption, len(choices))
		for i := range choices {
			ctx := choices[i]
			options[i] = model.PromptOption{Label: ctx.Format(), Icon: "📍", Context: &ctx}
		}
		return model.Affirmation{
			Method: model.AffirmDisambiguation,
			ShowUI: true,
			UI: &model.PromptSpec{
				Type:    model.PromptMultiChoice,
				Prompt:  "Where are you?",
				Options: options,
			},
		}

	default:
		restaurant := model.ContextRestaurantCounter
		playground := model.ContextPlayground
		kitchen := model.ContextHomeKitchen
		return model.Affirmation{
			Method: model.AffirmManual,
			ShowUI: true,
			UI: &model.PromptSpec{
				Type:   model.PromptFullPicker,
				Prompt: "Choose your situation",
				Options: []model.PromptOption{
					{Label: "Restaurant", Icon: "🍴", Context: &restaurant},
					{Label: "Playground", Icon: "🛝", Context: &playground},
					{Label: "Kitchen", Icon: "🍽️", Context: &kitchen},
				},
			},
		}
	}
}
