package explain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/current"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/internal/question"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

// Completer is the slice of the provider client the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
}

// CurrentResolver supplies live answers for time-sensitive questions so the
// retrieval stage can blend them in.
type CurrentResolver interface {
	Resolve(ctx context.Context, questionID int, questionText string) (string, error)
}

// Result is a combined contextual explanation. The legacy single-stage
// generator writes the same shape with an empty ContextualInfo; the cache
// does not distinguish provenance.
type Result struct {
	Explanation    string    `json:"explanation"`
	ContextualInfo string    `json:"contextualInfo"`
	Timestamp      time.Time `json:"timestamp"`
}

// PipelineError reports which stage of the contextual pipeline failed.
type PipelineError struct {
	Stage string
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("contextual explanation failed at %s stage: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Pipeline is the two-stage retrieve-then-synthesize explanation generator.
// Both stages are required; there is no partial success. The combined
// result is cached atomically under the question id, checked before either
// stage runs.
type Pipeline struct {
	completer Completer
	cache     *cache.Content
	resolver  CurrentResolver
}

func NewPipeline(completer Completer, contentCache *cache.Content, resolver CurrentResolver) *Pipeline {
	return &Pipeline{
		completer: completer,
		cache:     contentCache,
		resolver:  resolver,
	}
}

// Explain returns the contextual explanation for a question, from cache or
// by running both stages. Failure of either stage aborts the pipeline with
// no cache write.
func (p *Pipeline) Explain(ctx context.Context, q question.Record) (Result, error) {
	key := strconv.Itoa(q.ID)

	var cached Result
	if p.cache.Get(ctx, cache.NamespaceRAGExplanations, key, &cached) && cached.Explanation != "" {
		log.Debug("using cached contextual explanation for question %d", q.ID)
		return cached, nil
	}

	contextText, err := p.retrieveContext(ctx, q)
	if err != nil {
		return Result{}, &PipelineError{Stage: "retrieve", Cause: err}
	}

	explanation, err := p.synthesizeExplanation(ctx, q, contextText)
	if err != nil {
		return Result{}, &PipelineError{Stage: "synthesize", Cause: err}
	}

	result := Result{
		Explanation:    explanation,
		ContextualInfo: contextText,
		Timestamp:      time.Now().UTC(),
	}
	p.cache.Put(ctx, cache.NamespaceRAGExplanations, key, result)
	return result, nil
}

// retrieveContext asks for fact-dense background for the question. For
// time-sensitive questions the resolved current answer is prepended so the
// background reflects today's officeholders.
func (p *Pipeline) retrieveContext(ctx context.Context, q question.Record) (string, error) {
	var sb strings.Builder
	sb.WriteString("Provide factual background and historical context for this US citizenship question. Cover the relevant constitutional provisions, history, and figures. Be dense with facts, not filler.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\nOfficial answer: %s\n", q.Question, q.PrimaryAnswer()))

	if p.resolver != nil && current.IsTimeSensitive(q.ID) {
		if answer, err := p.resolver.Resolve(ctx, q.ID, q.Question); err == nil {
			sb.WriteString(fmt.Sprintf("\nThe answer to this question changes over time. The current answer is: %s\n", answer))
		} else {
			log.Warn("current answer unavailable for question %d, context will omit it: %v", q.ID, err)
		}
	}

	contextText, err := p.completer.Complete(ctx, []llm.Message{{Role: "user", Content: sb.String()}}, llm.CompletionOptions{
		Temperature: 0.5,
		MaxTokens:   400,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(contextText), nil
}

// synthesizeExplanation merges the official answer with the retrieved
// context into one study-ready explanation.
func (p *Pipeline) synthesizeExplanation(ctx context.Context, q question.Record, contextText string) (string, error) {
	prompt := fmt.Sprintf(`Provide a clear, educational explanation for this US citizenship question and answer, blending the official answer with the background below. Keep it concise but informative, suitable for someone studying for the citizenship test.

Question: %s
Answer: %s

Background:
%s

Please explain why this answer is correct and provide helpful context.`, q.Question, q.PrimaryAnswer(), contextText)

	explanation, err := p.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(explanation), nil
}

// LegacyExplain is the single-shot generator used when the contextual
// pipeline fails. It writes its result under the same cache key as a
// successful contextual run, with an empty ContextualInfo.
func (p *Pipeline) LegacyExplain(ctx context.Context, q question.Record) (string, error) {
	prompt := fmt.Sprintf(`Provide a clear, educational explanation for this US citizenship question and answer. Keep it concise but informative, suitable for someone studying for the citizenship test:

Question: %s
Answer: %s

Please explain why this answer is correct and provide helpful context.`, q.Question, q.PrimaryAnswer())

	explanation, err := p.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	explanation = strings.TrimSpace(explanation)

	p.cache.Put(ctx, cache.NamespaceRAGExplanations, strconv.Itoa(q.ID), Result{
		Explanation: explanation,
		Timestamp:   time.Now().UTC(),
	})
	return explanation, nil
}
