package model

import "time"

// Classification is one model inference result for a single frame. It has no
// identity beyond its arrival time; the stabilizer decides what, if anything,
// it means for the visible tile set.
type Classification struct {
	ReceivedAt         time.Time
	Primary            ContextType
	Secondary          []ContextType
	Entities           []string
	SituationInference string
	Confidence         float64
}

// AffirmationMethod describes how a guessed context gets confirmed.
type AffirmationMethod string

// Affirmation methods, in decreasing order of classifier confidence.
const (
	AffirmAuto           AffirmationMethod = "auto"
	AffirmQuickConfirm   AffirmationMethod = "quick_confirm"
	AffirmDisambiguation AffirmationMethod = "disambiguation"
	AffirmManual         AffirmationMethod = "manual"
)

// PromptType identifies the confirmation UI a non-auto affirmation needs.
type PromptType string

// Prompt types.
const (
	PromptBinary      PromptType = "binary"
	PromptMultiChoice PromptType = "multi_choice"
	PromptFullPicker  PromptType = "full_picker"
)

// PromptOption is one choice offered by a confirmation prompt. Context is nil
// for options that do not select a context directly (e.g. "show alternatives").
type PromptOption struct {
	Context *ContextType
	Label   string
	Icon    string
	Action  string
}

// PromptSpec describes the confirmation prompt to render.
type PromptSpec struct {
	Type    PromptType
	Prompt  string
	Options []PromptOption
}

// Affirmation is the outcome of the confidence-banded affirmation policy.
// Only the auto band yields Affirmed=true with a non-nil FinalContext; every
// other band carries a PromptSpec and waits for the user's choice to be fed
// back as a confirmed context.
type Affirmation struct {
	FinalContext *ContextType
	UI           *PromptSpec
	Method       AffirmationMethod
	Affirmed     bool
	ShowUI       bool
}
