package rest

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedTags = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
}

var tagMatcher = language.NewMatcher(supportedTags)

// The catalog covers the player-facing response strings. Admin responses
// stay untranslated.
func init() {
	ptBR := language.MustParse("pt-BR")
	entries := []struct {
		key, ptBR string
	}{
		{"Welcome to the hunt, %s.", "Bem-vindo à caçada, %s."},
		{"Your target is %s. Good hunting.", "Seu alvo é %s. Boa caçada."},
	}
	for _, e := range entries {
		if err := message.SetString(language.English, e.key, e.key); err != nil {
			panic(err)
		}
		if err := message.SetString(ptBR, e.key, e.ptBR); err != nil {
			panic(err)
		}
	}
}

// printerFor resolves the best supported language for the request and
// returns a printer for human-readable response text.
func printerFor(r *http.Request) *message.Printer {
	tag := language.English
	if r != nil {
		if accept := r.Header.Get("Accept-Language"); accept != "" {
			if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
				// Match can synthesize a tag with extensions; index back
				// into the supported list so the catalog lookup hits.
				_, idx, _ := tagMatcher.Match(tags...)
				tag = supportedTags[idx]
			}
		}
	}
	return message.NewPrinter(tag)
}
