package speech

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/llm"
)

type fakeCompleter struct {
	calls    int
	response string
	err      error
	lastMsgs []llm.Message
	lastOpts llm.CompletionOptions
}

func (f *fakeCompleter) Complete(_ context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error) {
	f.calls++
	f.lastMsgs = messages
	f.lastOpts = opts
	return f.response, f.err
}

func newTestNormalizer(t *testing.T, completer Completer) *Normalizer {
	t.Helper()
	store, err := cache.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewNormalizer(completer, cache.NewContent(store))
}

func TestNormalizeForSpeech(t *testing.T) {
	completer := &fakeCompleter{response: "Pergunta: qual é a lei suprema do país?"}
	normalizer := newTestNormalizer(t, completer)

	got := normalizer.NormalizeForSpeech(context.Background(), "Pergunta: qual e a lei suprema do pais?")
	assert.Equal(t, "Pergunta: qual é a lei suprema do país?", got)

	require.Len(t, completer.lastMsgs, 2)
	assert.Equal(t, "system", completer.lastMsgs[0].Role)
	assert.Contains(t, completer.lastMsgs[0].Content, "European Portuguese")
	assert.Contains(t, completer.lastMsgs[1].Content, "qual e a lei suprema")
	assert.Equal(t, 600, completer.lastOpts.MaxTokens)
	assert.InDelta(t, 0.3, completer.lastOpts.Temperature, 1e-9)
}

func TestNormalizeForSpeechCachesByContentHash(t *testing.T) {
	completer := &fakeCompleter{response: "texto normalizado"}
	normalizer := newTestNormalizer(t, completer)
	ctx := context.Background()

	first := normalizer.NormalizeForSpeech(ctx, "texto original")
	second := normalizer.NormalizeForSpeech(ctx, "texto original")

	assert.Equal(t, "texto normalizado", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, completer.calls)

	// A different input misses the cache.
	normalizer.NormalizeForSpeech(ctx, "outro texto")
	assert.Equal(t, 2, completer.calls)
}

func TestNormalizeForSpeechFailureReturnsInput(t *testing.T) {
	completer := &fakeCompleter{err: llm.ErrRateLimited}
	normalizer := newTestNormalizer(t, completer)

	input := "O Presidente assina as leis."
	got := normalizer.NormalizeForSpeech(context.Background(), input)
	assert.Equal(t, input, got)
}

func TestNormalizeForSpeechEmptyResponseReturnsInput(t *testing.T) {
	completer := &fakeCompleter{response: "   "}
	normalizer := newTestNormalizer(t, completer)

	input := "O Presidente assina as leis."
	got := normalizer.NormalizeForSpeech(context.Background(), input)
	assert.Equal(t, input, got)

	// Degraded results are not cached; a retry reaches the provider again.
	normalizer.NormalizeForSpeech(context.Background(), input)
	assert.Equal(t, 2, completer.calls)
}

func TestNormalizeForSpeechBlankInput(t *testing.T) {
	completer := &fakeCompleter{response: "should not be called"}
	normalizer := newTestNormalizer(t, completer)

	assert.Equal(t, "", normalizer.NormalizeForSpeech(context.Background(), ""))
	assert.Equal(t, "  ", normalizer.NormalizeForSpeech(context.Background(), "  "))
	assert.Zero(t, completer.calls)
}

func TestNormalizeForSpeechNeverEmpty(t *testing.T) {
	completer := &fakeCompleter{err: llm.ErrMalformedResponse}
	normalizer := newTestNormalizer(t, completer)

	got := normalizer.NormalizeForSpeech(context.Background(), "alguma frase")
	assert.NotEmpty(t, strings.TrimSpace(got))
}

func TestHashTextStable(t *testing.T) {
	a := HashText("Pergunta: qual é a lei suprema do país?")
	b := HashText("Pergunta: qual é a lei suprema do país?")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashText("outra frase"))
	assert.Equal(t, "0", HashText(""))
}

func TestVoicesForLanguage(t *testing.T) {
	voices := Voices{English: "af_sky", Portuguese: "pf_dora"}

	assert.Equal(t, "af_sky", voices.ForLanguage(language.English))
	assert.Equal(t, "pf_dora", voices.ForLanguage(language.EuropeanPortuguese))
	assert.Equal(t, "pf_dora", voices.ForLanguage(language.Portuguese))
	assert.Equal(t, "af_sky", voices.ForLanguage(language.French))
}
