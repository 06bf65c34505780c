package summary

import (
	"context"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
)

var log = logutils.Component("summary")

// Fixed texts returned instead of a generated summary.
const (
	NoActivityText  = "There are no recent updates for the project."
	UnavailableText = "Sorry, the project summary could not be generated right now. Please try again later."
	EmptyAnswerText = "Sorry, the summary service returned an empty answer. Please try again later."
)

// Result is the outcome of one summary request. Generated is false when Text
// is one of the fixed fallback texts.
type Result struct {
	Text      string
	Generated bool
}

// Generator turns a project and its tasks into a short status summary.
// It never fails; problems are reported through fallback text.
type Generator interface {
	GenerateSummary(ctx context.Context, project *repository.Project) Result
}

func noActivity() Result  { return Result{Text: NoActivityText} }
func unavailable() Result { return Result{Text: UnavailableText} }
