package current

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

// searchIntents maps the closed set of time-sensitive question ids to a
// search-intent string. The official answer for these questions is "check
// uscis.gov", so the study aid resolves a live answer instead. The domain
// is closed and not editable at runtime.
var searchIntents = map[int]string{
	28: "current President of the United States",
	29: "current Vice President of the United States",
	39: "number of Supreme Court justices",
	40: "current Chief Justice Supreme Court United States",
	46: "current President political party",
	47: "current Speaker of the House Representatives",
}

// verificationNote is appended to every disclaimed fallback answer.
const verificationNote = " (Note: Please verify current information at uscis.gov)"

// refusalPhrases mark an answer as an evasion rather than a fact.
// Matched case-insensitively as substrings.
var refusalPhrases = []string{
	"i cannot",
	"i don't know",
	"unable to",
	"error",
	"visit uscis.gov",
	"please check",
	"not available",
}

// properNamePattern is a naive heuristic for a two-token capitalized name.
var properNamePattern = regexp.MustCompile(`[A-Z][a-z]+ [A-Z][a-z]+`)

// ErrUnavailable means both the model chain and the disclaimed fallback
// failed at the transport level.
var ErrUnavailable = errors.New("unable to retrieve current information")

// Completer is the slice of the provider client the resolver needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
}

// Resolver answers the small set of civics questions whose correct answer
// changes over time, by walking an ordered chain of web-search-capable
// models and validating each candidate answer. The chain order comes from
// configuration; resolution always starts from the full list, and the last
// model that produced a valid answer is kept as an adaptive hint for
// downstream explanation requests.
type Resolver struct {
	completer     Completer
	models        []string
	fallbackModel string

	mu          sync.Mutex
	lastWorking string
}

func NewResolver(completer Completer, models []string, fallbackModel string) *Resolver {
	return &Resolver{
		completer:     completer,
		models:        models,
		fallbackModel: fallbackModel,
	}
}

// IsTimeSensitive reports whether questionID is in the closed set of
// questions that need live resolution.
func IsTimeSensitive(questionID int) bool {
	_, ok := searchIntents[questionID]
	return ok
}

// TimeSensitiveIDs returns the closed set of question ids, in ascending order.
func TimeSensitiveIDs() []int {
	return []int{28, 29, 39, 40, 46, 47}
}

// LastWorkingModel returns the most recently successful model, or empty if
// nothing has succeeded yet.
func (r *Resolver) LastWorkingModel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastWorking
}

// Resolve returns a current answer for a time-sensitive question.
//
// Each configured model is tried in priority order with a tightly
// constrained web-search-augmented request; the first valid answer wins and
// no further models are tried. A validation failure counts as that model's
// failure. When the whole chain fails, a disclaimed best-effort answer is
// produced without web search and always returned, unless that fallback
// call itself fails at the transport level.
func (r *Resolver) Resolve(ctx context.Context, questionID int, questionText string) (string, error) {
	intent, ok := searchIntents[questionID]
	if !ok {
		return "", fmt.Errorf("question %d is not time-sensitive", questionID)
	}

	for _, model := range r.models {
		answer, err := r.attempt(ctx, questionText, intent, model)
		if err != nil {
			log.Warn("current-answer model %s failed: %v", model, err)
			continue
		}
		log.Info("current-answer resolved via model %s", model)
		r.mu.Lock()
		r.lastWorking = model
		r.mu.Unlock()
		return answer, nil
	}

	log.Info("all current-answer models failed, using disclaimed fallback")
	answer, err := r.fallback(ctx, questionText)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return answer, nil
}

// attempt issues one web-search-augmented request against a single model.
// No retry happens within an attempt.
func (r *Resolver) attempt(ctx context.Context, questionText, intent, model string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI assistant with access to current web information. Search for and provide the most up-to-date answer to this US citizenship question.

Question: %s
Search focus: %s

Please provide ONLY the direct answer to the question based on current, verified information from reliable sources. Do not include explanations or additional text - just the factual answer.

Example format:
- For "Who is the current President?": a person's full name
- For "How many justices are on the Supreme Court?": a number
- For "What is the current President's political party?": a party name

Answer:`, questionText, intent)

	answer, err := r.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.CompletionOptions{
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   100,
		WebSearch:   true,
	})
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if !ValidateAnswer(answer, questionText) {
		return "", fmt.Errorf("answer validation failed for model %s", model)
	}
	return answer, nil
}

// fallback asks the default model for a best-effort answer without web
// search and appends the fixed verification note.
func (r *Resolver) fallback(ctx context.Context, questionText string) (string, error) {
	prompt := fmt.Sprintf(`As an AI assistant with knowledge of current US government information, answer this citizenship question with the most current information available:

Question: %s

Based on your knowledge of recent US government officials and structure, provide a direct answer. If the information changes frequently (like current office holders), acknowledge that verification with current sources is recommended.

Important: This question refers users to uscis.gov because the answer changes over time. Provide your best knowledge while noting that current information should be verified.

Answer:`, questionText)

	answer, err := r.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.CompletionOptions{
		Model:       r.fallbackModel,
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer) + verificationNote, nil
}

// ValidateAnswer checks that a candidate answer looks like a fact:
// at least 3 characters, no refusal phrases, and for President questions a
// two-token capitalized name.
func ValidateAnswer(answer, questionText string) bool {
	if len(answer) < 3 {
		return false
	}

	lowerAnswer := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowerAnswer, phrase) {
			return false
		}
	}

	if strings.Contains(questionText, "President") && !properNamePattern.MatchString(answer) {
		return false
	}
	return true
}
