package lemma

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestStaticResolver_TableHit(t *testing.T) {
	t.Parallel()

	r := NewStaticResolver(map[string]Resolution{
		"verstehe": {Lemma: "verstehen", PartOfSpeech: "VERB"},
	})

	res, err := r.Lemmatize(context.Background(), "Verstehe", language.German)
	require.NoError(t, err)
	assert.Equal(t, "verstehen", res.Lemma)
	assert.Equal(t, "VERB", res.PartOfSpeech)
}

func TestStaticResolver_FallsBackToFoldedSurface(t *testing.T) {
	t.Parallel()

	r := NewStaticResolver(nil)
	res, err := r.Lemmatize(context.Background(), "Wichtig", language.German)
	require.NoError(t, err)
	assert.Equal(t, "wichtig", res.Lemma)
}

func TestKagomeResolver_BaseForm(t *testing.T) {
	t.Parallel()

	r, err := NewKagomeResolver()
	require.NoError(t, err)

	res, err := r.Lemmatize(context.Background(), "行っ", language.Japanese)
	require.NoError(t, err)
	assert.Equal(t, "行く", res.Lemma)
	assert.NotEmpty(t, res.PartOfSpeech)
}

func TestKagomeResolver_ProperNounHierarchy(t *testing.T) {
	t.Parallel()

	r, err := NewKagomeResolver()
	require.NoError(t, err)

	res, err := r.Lemmatize(context.Background(), "東京", language.Japanese)
	require.NoError(t, err)
	assert.Equal(t, "東京", res.Lemma)
	assert.Equal(t, "名詞", res.PartOfSpeech)
	assert.Contains(t, res.PartsOfSpeech, "固有名詞")
}

func TestKagomeResolver_RejectsOtherLanguages(t *testing.T) {
	t.Parallel()

	r, err := NewKagomeResolver()
	require.NoError(t, err)

	_, err = r.Lemmatize(context.Background(), "hello", language.English)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "hello", resErr.Token)
}
