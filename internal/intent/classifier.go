package intent

import (
	"context"
	"slices"
	"strings"

	"agendabot/pkg/sanitizer"
)

type Intent string

const (
	Greeting     Intent = "Saludo"
	Appointments Intent = "Citas"
	Promotions   Intent = "Promociones"
	Support      Intent = "Soporte"
	Confirmation Intent = "Confirmacion"
	Reschedule   Intent = "Reagendar"
	FAQ          Intent = "FAQ"
)

// Classifier maps free text onto an Intent. Implementations must not fail
// on unknown input: FAQ is the fallback.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

type rule struct {
	intent    Intent
	fragments []string
	words     []string
}

// KeywordClassifier checks rules in order; the first rule with a matching
// fragment (substring) or word (whole token) wins. "reagendar" therefore
// lands on Appointments through its "agendar" fragment.
type KeywordClassifier struct {
	rules []rule
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		rules: []rule{
			{intent: Greeting, fragments: []string{"hola", "buenos", "buenas"}},
			{intent: Appointments, fragments: []string{"cita", "turno", "agendar", "reservar"}},
			{intent: Promotions, fragments: []string{"promo", "descuento"}},
			{intent: Support, fragments: []string{"soporte", "ayuda", "humano", "asesor"}},
			{intent: Confirmation, fragments: []string{"confirmar"}, words: []string{"si"}},
			{intent: Reschedule, fragments: []string{"reagendar", "cambiar"}, words: []string{"no"}},
		},
	}
}

func (c *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	key := sanitizer.MatchKey(text)
	if key == "" {
		return FAQ, nil
	}
	tokens := strings.Fields(key)

	for _, r := range c.rules {
		for _, f := range r.fragments {
			if strings.Contains(key, f) {
				return r.intent, nil
			}
		}
		for _, w := range r.words {
			if slices.Contains(tokens, w) {
				return r.intent, nil
			}
		}
	}
	return FAQ, nil
}
