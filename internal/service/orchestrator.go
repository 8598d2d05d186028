package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/current"
	"github.com/mlourenco/civics-tutor/internal/explain"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/internal/question"
	"github.com/mlourenco/civics-tutor/internal/speech"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

// Provider is the slice of the remote client the orchestrator needs.
type Provider interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
	SynthesizeSpeech(ctx context.Context, text string, voice string) ([]byte, error)
}

// Explanation is the bilingual explanation for one question.
type Explanation struct {
	EN string `json:"en"`
	PT string `json:"pt"`
}

// Orchestrator ties the content pipelines together per question. All
// dependencies are constructor-injected; one instance is created at startup
// and shared.
//
// Requests for the same content key are deduplicated with singleflight:
// a second caller awaits the first's in-progress result instead of issuing
// a duplicate paid remote call.
type Orchestrator struct {
	bank       *question.Bank
	cache      *cache.Content
	provider   Provider
	translator Translator
	normalizer Normalizer
	pipeline   ExplainPipeline
	resolver   Resolver
	voices     speech.Voices

	flight singleflight.Group
}

// Translator is the translation pipeline surface used by the orchestrator.
type Translator interface {
	TranslateQuestionCached(ctx context.Context, questionID int, sourceText string) (string, error)
	TranslateQuestionAnswer(ctx context.Context, questionText, answerText string) (string, error)
}

// Normalizer is the TTS text normalizer surface used by the orchestrator.
type Normalizer interface {
	NormalizeForSpeech(ctx context.Context, text string) string
}

// ExplainPipeline is the explanation generator surface used by the
// orchestrator.
type ExplainPipeline interface {
	Explain(ctx context.Context, q question.Record) (explain.Result, error)
	LegacyExplain(ctx context.Context, q question.Record) (string, error)
}

// Resolver is the current-answer surface used by the orchestrator.
type Resolver interface {
	Resolve(ctx context.Context, questionID int, questionText string) (string, error)
}

func NewOrchestrator(
	bank *question.Bank,
	contentCache *cache.Content,
	provider Provider,
	translator Translator,
	normalizer Normalizer,
	pipeline ExplainPipeline,
	resolver Resolver,
	voices speech.Voices,
) *Orchestrator {
	return &Orchestrator{
		bank:       bank,
		cache:      contentCache,
		provider:   provider,
		translator: translator,
		normalizer: normalizer,
		pipeline:   pipeline,
		resolver:   resolver,
		voices:     voices,
	}
}

// Questions returns the bank filtered by query.
func (o *Orchestrator) Questions(query string) []question.Record {
	return o.bank.Search(query)
}

// Question looks up a single record.
func (o *Orchestrator) Question(id int) (question.Record, error) {
	q, ok := o.bank.Get(id)
	if !ok {
		return question.Record{}, NewError(ErrQuestionData, fmt.Sprintf("question %d not found", id))
	}
	return q, nil
}

// GetExplanation resolves the bilingual explanation for a question:
// cache first, then the contextual pipeline, then the legacy single-stage
// generator. The winning English text is translated and the combined result
// is cached only after both halves are valid, so the cache never holds a
// placeholder translation.
func (o *Orchestrator) GetExplanation(ctx context.Context, id int) (Explanation, error) {
	q, err := o.Question(id)
	if err != nil {
		return Explanation{}, err
	}

	key := strconv.Itoa(id)
	v, err, _ := o.flight.Do(string(cache.NamespaceExplanations)+":"+key, func() (any, error) {
		var cached Explanation
		if o.cache.Get(ctx, cache.NamespaceExplanations, key, &cached) && cached.EN != "" {
			return cached, nil
		}

		english, genErr := o.generateEnglish(ctx, q)
		if genErr != nil {
			return Explanation{}, genErr
		}

		portuguese, transErr := o.translator.TranslateQuestionCached(ctx, id, english)
		if transErr != nil {
			// Degraded result: surfaced but never cached, so the next
			// request retries the translation.
			log.Warn("translation failed for question %d: %v", id, transErr)
			return Explanation{EN: english, PT: "Tradução indisponível. Tente novamente."}, nil
		}

		result := Explanation{EN: english, PT: portuguese}
		o.cache.Put(ctx, cache.NamespaceExplanations, key, result)
		return result, nil
	})
	if err != nil {
		return Explanation{}, err
	}
	return v.(Explanation), nil
}

// generateEnglish runs the contextual pipeline with the legacy generator as
// fallback.
func (o *Orchestrator) generateEnglish(ctx context.Context, q question.Record) (string, error) {
	result, err := o.pipeline.Explain(ctx, q)
	if err == nil {
		return result.Explanation, nil
	}
	log.Warn("contextual explanation failed for question %d, using legacy generator: %v", q.ID, err)

	english, legacyErr := o.pipeline.LegacyExplain(ctx, q)
	if legacyErr != nil {
		return "", WrapError(legacyErr, classify(legacyErr), fmt.Sprintf("explanation generation failed for question %d", q.ID))
	}
	return english, nil
}

// GetSpeech produces audio for a question in the requested language.
// Source text preference: cached explanation in that language, else the raw
// question and answer (translated on the fly for Portuguese). Portuguese
// text goes through TTS normalization before synthesis.
func (o *Orchestrator) GetSpeech(ctx context.Context, id int, lang language.Tag) ([]byte, error) {
	q, err := o.Question(id)
	if err != nil {
		return nil, err
	}

	base, _ := lang.Base()
	isPortuguese := base.String() == "pt"

	flightKey := "speech:" + strconv.Itoa(id) + ":" + base.String()
	v, err, _ := o.flight.Do(flightKey, func() (any, error) {
		text, err := o.speechText(ctx, q, isPortuguese)
		if err != nil {
			return nil, WrapError(err, classify(err), fmt.Sprintf("speech text unavailable for question %d", id))
		}

		if isPortuguese {
			text = o.normalizer.NormalizeForSpeech(ctx, text)
		}

		audio, err := o.provider.SynthesizeSpeech(ctx, text, o.voices.ForLanguage(lang))
		if err != nil {
			return nil, WrapError(err, classify(err), fmt.Sprintf("speech synthesis failed for question %d", id))
		}
		return audio, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// speechText selects the text to speak for a question.
func (o *Orchestrator) speechText(ctx context.Context, q question.Record, portuguese bool) (string, error) {
	var cached Explanation
	if o.cache.Get(ctx, cache.NamespaceExplanations, strconv.Itoa(q.ID), &cached) {
		if portuguese && cached.PT != "" {
			return cached.PT, nil
		}
		if !portuguese && cached.EN != "" {
			return cached.EN, nil
		}
	}

	if !portuguese {
		return fmt.Sprintf("Question: %s Answer: %s", q.Question, q.PrimaryAnswer()), nil
	}
	return o.translator.TranslateQuestionAnswer(ctx, q.Question, q.PrimaryAnswer())
}

// CurrentAnswer resolves the live answer for a time-sensitive question.
func (o *Orchestrator) CurrentAnswer(ctx context.Context, id int) (string, error) {
	q, err := o.Question(id)
	if err != nil {
		return "", err
	}
	if !current.IsTimeSensitive(id) {
		return "", NewError(ErrValidation, fmt.Sprintf("question %d has a static answer", id))
	}

	v, err, _ := o.flight.Do("current:"+strconv.Itoa(id), func() (any, error) {
		answer, err := o.resolver.Resolve(ctx, id, q.Question)
		if err != nil {
			return "", WrapError(err, classify(err), fmt.Sprintf("current answer unavailable for question %d", id))
		}
		return answer, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// RefreshCurrentAnswers resolves every time-sensitive question once,
// logging failures and carrying on. Used by the scheduled refresh and the
// one-shot CLI command. Returns the number of questions refreshed.
func (o *Orchestrator) RefreshCurrentAnswers(ctx context.Context) int {
	refreshed := 0
	for _, id := range current.TimeSensitiveIDs() {
		answer, err := o.CurrentAnswer(ctx, id)
		if err != nil {
			log.Error("refresh of question %d failed: %v", id, err)
			continue
		}
		log.Info("refreshed current answer for question %d: %s", id, answer)
		refreshed++
	}
	return refreshed
}

// CacheStats exposes cache usage for the ops surface.
func (o *Orchestrator) CacheStats(ctx context.Context) cache.Stats {
	return o.cache.Stats(ctx)
}

// Probe issues one tiny completion to verify provider connectivity.
// Failures are reported, not fatal.
func (o *Orchestrator) Probe(ctx context.Context) error {
	_, err := o.provider.Complete(ctx, []llm.Message{{Role: "user", Content: "Hello, this is a test."}}, llm.CompletionOptions{MaxTokens: 10})
	return err
}
