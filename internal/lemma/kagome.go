package lemma

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"golang.org/x/text/language"
)

// KagomeResolver resolves Japanese lemmas via kagome morphological
// analysis with the IPA dictionary.
type KagomeResolver struct {
	t *tokenizer.Tokenizer
}

func NewKagomeResolver() (*KagomeResolver, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to build kagome tokenizer: %w", err)
	}
	return &KagomeResolver{t: t}, nil
}

func (r *KagomeResolver) Lemmatize(ctx context.Context, token string, lang language.Tag) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, &ResolutionError{Token: token, Cause: err}
	}
	if base, _ := lang.Base(); base.String() != "ja" {
		return Resolution{}, &ResolutionError{Token: token, Cause: fmt.Errorf("unsupported language %s", lang)}
	}

	tokens := r.t.Tokenize(token)
	for _, tk := range tokens {
		if tk.Class == tokenizer.DUMMY || strings.TrimSpace(tk.Surface) == "" {
			continue
		}

		// Kagome IPA features:
		// 0-3: part-of-speech hierarchy, 6: base form (lemma)
		features := tk.Features()

		base := tk.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		var posPath []string
		for i := 0; i < len(features) && i < 4; i++ {
			if features[i] == "*" || features[i] == "" {
				break
			}
			posPath = append(posPath, features[i])
		}
		pos := ""
		if len(posPath) > 0 {
			pos = posPath[0]
		}
		return Resolution{Lemma: base, PartOfSpeech: pos, PartsOfSpeech: posPath}, nil
	}

	return Resolution{}, &ResolutionError{Token: token, Cause: fmt.Errorf("no morpheme found")}
}
