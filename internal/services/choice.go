package services

import "github.com/univeil/univeil/internal/models"

// ChoiceOutcome is the resolution of the two sides' post-timer choices.
type ChoiceOutcome int

const (
	// OutcomePending: at least one side is still undecided (or only peeked).
	OutcomePending ChoiceOutcome = iota
	// OutcomeExtended: mutual continue; the session becomes identified.
	OutcomeExtended
	// OutcomeClosed: the pairing is over for good.
	OutcomeClosed
)

// Coin prices for post-timer choices. A chat choice is discounted when the
// caller already paid for a reveal in the same session.
const (
	PriceReveal          int64 = 70
	PriceChat            int64 = 200
	PriceChatAfterReveal int64 = 100
)

// choiceTable enumerates every combination explicitly. A reveal on its own is
// a paid peek, not a commitment, so it leaves the outcome pending until the
// side upgrades to chat, declines, or the decision window sweeps the session.
var choiceTable = map[[2]string]ChoiceOutcome{
	{models.ChoiceNone, models.ChoiceNone}:       OutcomePending,
	{models.ChoiceNone, models.ChoiceReveal}:     OutcomePending,
	{models.ChoiceNone, models.ChoiceChat}:       OutcomePending,
	{models.ChoiceNone, models.ChoiceDecline}:    OutcomeClosed,
	{models.ChoiceReveal, models.ChoiceNone}:     OutcomePending,
	{models.ChoiceReveal, models.ChoiceReveal}:   OutcomePending,
	{models.ChoiceReveal, models.ChoiceChat}:     OutcomePending,
	{models.ChoiceReveal, models.ChoiceDecline}:  OutcomeClosed,
	{models.ChoiceChat, models.ChoiceNone}:       OutcomePending,
	{models.ChoiceChat, models.ChoiceReveal}:     OutcomePending,
	{models.ChoiceChat, models.ChoiceChat}:       OutcomeExtended,
	{models.ChoiceChat, models.ChoiceDecline}:    OutcomeClosed,
	{models.ChoiceDecline, models.ChoiceNone}:    OutcomeClosed,
	{models.ChoiceDecline, models.ChoiceReveal}:  OutcomeClosed,
	{models.ChoiceDecline, models.ChoiceChat}:    OutcomeClosed,
	{models.ChoiceDecline, models.ChoiceDecline}: OutcomeClosed,
}

// ResolveChoices looks up the outcome for the two recorded choices.
func ResolveChoices(a, b string) ChoiceOutcome {
	if a == "" {
		a = models.ChoiceNone
	}
	if b == "" {
		b = models.ChoiceNone
	}
	out, ok := choiceTable[[2]string{a, b}]
	if !ok {
		return OutcomePending
	}
	return out
}

// ChoicePrice returns the coin cost of a choice; decline is free.
func ChoicePrice(choice string, alreadyRevealed bool) int64 {
	switch choice {
	case models.ChoiceReveal:
		return PriceReveal
	case models.ChoiceChat:
		if alreadyRevealed {
			return PriceChatAfterReveal
		}
		return PriceChat
	}
	return 0
}
