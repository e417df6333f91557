// Package cost projects the monetary cost of the next turn before it is
// sent. Projection covers input-side pricing only: output cost is open-ended
// until generation completes, and the server reports the settled cost with
// the turn's completion event.
package cost

import (
	"errors"
	"unicode/utf8"

	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/pkg/metrics"
)

// charsPerToken is the units-per-character heuristic: characters / 4 ≈ tokens.
const charsPerToken = 4

// tokensPerDollarUnit converts price-table rates (dollars per million tokens).
const tokensPerDollarUnit = 1_000_000

// ErrUnavailable is returned when roster metadata or pricing is missing. A
// silently wrong estimate is worse than none, so the estimator refuses to
// guess for conversations created before roster tracking existed.
var ErrUnavailable = errors.New("cost estimate unavailable")

// Estimate is a projected cost for the upcoming turn.
type Estimate struct {
	// Mode is the branch the backend will take for this turn.
	Mode model.TurnMode
	// InputTokens is the heuristic token count of the pending input.
	InputTokens int
	// Dollars is the projected input-side cost.
	Dollars float64
}

// EstimateTurn projects the cost of sending input given the conversation
// state. Pure function of its arguments: no side effects beyond a counter,
// no network access, safe to call on every keystroke.
//
// First turn (empty history): every council model reads the prompt twice,
// once to answer and once again while ranking, and the chairman reads it for
// synthesis. Follow-up turn: only the chairman reads it.
func EstimateTurn(input string, historyLen int, meta model.ConversationMetadata, prices model.PriceTable) (Estimate, error) {
	mode := model.EffectiveMode(model.ModeAuto, historyLen)

	if meta.ChairmanModel == "" {
		return Estimate{}, ErrUnavailable
	}
	chairman, ok := prices[meta.ChairmanModel]
	if !ok {
		return Estimate{}, ErrUnavailable
	}

	ratePerMillion := chairman.Input
	if mode == model.ModeCouncil {
		if len(meta.CouncilModels) == 0 {
			return Estimate{}, ErrUnavailable
		}
		for _, id := range meta.CouncilModels {
			p, ok := prices[id]
			if !ok {
				return Estimate{}, ErrUnavailable
			}
			ratePerMillion += p.Input * 2
		}
	}

	// Characters, not bytes: multibyte input must not inflate the heuristic.
	tokens := utf8.RuneCountInString(input) / charsPerToken
	metrics.EstimatesTotal.WithLabelValues(string(mode)).Inc()

	return Estimate{
		Mode:        mode,
		InputTokens: tokens,
		Dollars:     float64(tokens) / tokensPerDollarUnit * ratePerMillion,
	}, nil
}
