package translate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

// failureSentinel is the literal string some models emit instead of a
// translation. A result equal to it is a validation failure, never cached.
const failureSentinel = "translation not available"

// Completer is the slice of the provider client the translator needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
}

// ValidationError reports a translation the pipeline refused to accept.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("translation validation failed: %s", e.Reason)
}

// Translator produces target-dialect renderings of English text.
// It does not decide question-scoped cache keys; TranslateQuestionCached is
// the cache-aware variant used for per-question texts.
type Translator struct {
	completer   Completer
	cache       *cache.Content
	instruction string
	target      language.Tag
}

func NewTranslator(completer Completer, contentCache *cache.Content, instruction string, target language.Tag) *Translator {
	return &Translator{
		completer:   completer,
		cache:       contentCache,
		instruction: instruction,
		target:      target,
	}
}

// Translate sends one completion request with the dialect instruction ahead
// of the source text and validates the result.
func (t *Translator) Translate(ctx context.Context, sourceText string) (string, error) {
	prompt := fmt.Sprintf("%s. %s", t.instruction, sourceText)
	messages := []llm.Message{{Role: "user", Content: prompt}}

	translation, err := t.completer.Complete(ctx, messages, llm.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}

	if err := t.validate(translation); err != nil {
		return "", err
	}
	return translation, nil
}

// TranslateQuestionAnswer translates a question and its answer as one
// "Question: ... Answer: ..." block, used for on-the-fly speech text.
func (t *Translator) TranslateQuestionAnswer(ctx context.Context, questionText, answerText string) (string, error) {
	return t.Translate(ctx, fmt.Sprintf("Question: %s\nAnswer: %s", questionText, answerText))
}

// TranslateExplanation translates a generated explanation, keeping the
// educational register.
func (t *Translator) TranslateExplanation(ctx context.Context, explanation string) (string, error) {
	return t.Translate(ctx, fmt.Sprintf("Translate this US citizenship explanation to European Portuguese, keeping it educational and clear: %s", explanation))
}

// TranslateQuestionCached checks the translations namespace first, computes
// on miss, and writes through. The key is the question id.
func (t *Translator) TranslateQuestionCached(ctx context.Context, questionID int, sourceText string) (string, error) {
	key := strconv.Itoa(questionID)

	var cached string
	if t.cache.Get(ctx, cache.NamespaceTranslations, key, &cached) && cached != "" {
		log.Debug("using cached translation for question %d", questionID)
		return cached, nil
	}

	translation, err := t.TranslateExplanation(ctx, sourceText)
	if err != nil {
		return "", err
	}

	t.cache.Put(ctx, cache.NamespaceTranslations, key, translation)
	return translation, nil
}

// validate rejects empty or whitespace-only text and the literal failure
// sentinel (case-insensitive). It also sniffs the language as a sanity
// check; detection is unreliable on short strings, so a mismatch is only
// logged.
func (t *Translator) validate(translation string) error {
	trimmed := strings.TrimSpace(translation)
	if trimmed == "" {
		return &ValidationError{Reason: "empty translation"}
	}
	if strings.Contains(strings.ToLower(trimmed), failureSentinel) {
		return &ValidationError{Reason: "provider returned failure sentinel"}
	}

	base, _ := t.target.Base()
	if info := whatlanggo.Detect(trimmed); info.IsReliable() && info.Lang.Iso6391() != base.String() {
		log.Warn("translation language sniff got %q, expected %q", info.Lang.Iso6391(), base.String())
	}
	return nil
}
