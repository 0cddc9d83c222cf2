package lemma

import (
	"context"

	"golang.org/x/text/language"
)

// Router dispatches lemmatization to a per-language resolver. Languages
// without a registered resolver use the fallback.
type Router struct {
	byLanguage map[string]Resolver
	fallback   Resolver
}

func NewRouter(fallback Resolver) *Router {
	return &Router{
		byLanguage: make(map[string]Resolver),
		fallback:   fallback,
	}
}

// Register routes a language's base code to a resolver and returns the
// router for chaining.
func (r *Router) Register(lang language.Tag, resolver Resolver) *Router {
	base, _ := lang.Base()
	r.byLanguage[base.String()] = resolver
	return r
}

func (r *Router) Lemmatize(ctx context.Context, token string, lang language.Tag) (Resolution, error) {
	base, _ := lang.Base()
	if resolver, ok := r.byLanguage[base.String()]; ok {
		return resolver.Lemmatize(ctx, token, lang)
	}
	return r.fallback.Lemmatize(ctx, token, lang)
}

var _ Resolver = (*Router)(nil)
