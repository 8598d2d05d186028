package speech

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

const normalizerSystemPrompt = `You are a European Portuguese language expert. Your task is to reformat text to ensure it will be pronounced correctly by a text-to-speech system in European Portuguese (Portugal Portuguese), NOT Brazilian Portuguese.

Key differences to emphasize:
- Use European Portuguese vocabulary and expressions
- Ensure proper European Portuguese pronunciation patterns
- Replace any Brazilian Portuguese terms with European Portuguese equivalents
- Format the text to sound natural when spoken by a European Portuguese TTS voice
- Maintain the original meaning while optimizing for European Portuguese speech synthesis

Return ONLY the reformatted text, nothing else.`

// Completer is the slice of the provider client the normalizer needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
}

// Normalizer reshapes Portuguese text so the speech engine pronounces it in
// the European dialect. Results are cached by content hash.
type Normalizer struct {
	completer Completer
	cache     *cache.Content
}

func NewNormalizer(completer Completer, contentCache *cache.Content) *Normalizer {
	return &Normalizer{completer: completer, cache: contentCache}
}

// NormalizeForSpeech returns a dialect-normalized rendering of text.
// The contract is graceful degradation: on any remote failure the original
// text is returned untouched, so synthesis downstream always has usable
// input. Never returns an empty string.
func (n *Normalizer) NormalizeForSpeech(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	key := "tts_" + HashText(text)

	var cached string
	if n.cache.Get(ctx, cache.NamespaceTTSFormatted, key, &cached) && cached != "" {
		log.Debug("using cached TTS-formatted text")
		return cached
	}

	messages := []llm.Message{
		{Role: "system", Content: normalizerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Reformat this Portuguese text to ensure it will be pronounced correctly in European Portuguese (Portugal) by a TTS system:\n\n%s", text)},
	}
	formatted, err := n.completer.Complete(ctx, messages, llm.CompletionOptions{
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		log.Warn("TTS formatting failed, falling back to original text: %v", err)
		return text
	}

	formatted = strings.TrimSpace(formatted)
	if formatted == "" {
		return text
	}

	n.cache.Put(ctx, cache.NamespaceTTSFormatted, key, formatted)
	return formatted
}

// Voices maps languages to provider voice identifiers.
type Voices struct {
	English    string
	Portuguese string
}

// ForLanguage returns the voice identifier for a language tag, defaulting
// to the English voice.
func (v Voices) ForLanguage(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == "pt" {
		return v.Portuguese
	}
	return v.English
}
