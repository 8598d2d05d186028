package main

import (
	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/config"
	"github.com/mlourenco/civics-tutor/internal/current"
	"github.com/mlourenco/civics-tutor/internal/explain"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/internal/question"
	"github.com/mlourenco/civics-tutor/internal/service"
	"github.com/mlourenco/civics-tutor/internal/speech"
	"github.com/mlourenco/civics-tutor/internal/translate"
)

// app bundles the wired process-wide instances. Every component receives
// its dependencies by reference; there are no ambient singletons.
type app struct {
	cfg          *config.Config
	store        *cache.Store
	orchestrator *service.Orchestrator
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildApp constructs the single process-wide instance of each component.
func buildApp(cfg *config.Config) (*app, error) {
	bank, err := loadBank(cfg)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(cfg.Cache.DBPath)
	if err != nil {
		return nil, err
	}
	contentCache := cache.NewContent(store)

	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		SpeechModel: cfg.TTS.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	translator := translate.NewTranslator(client, contentCache, cfg.Translate.DialectInstruction, cfg.Translate.TargetLanguage)
	normalizer := speech.NewNormalizer(client, contentCache)
	resolver := current.NewResolver(client, cfg.CurrentAnswer.Models, cfg.CurrentAnswer.FallbackModel)
	pipeline := explain.NewPipeline(client, contentCache, resolver)
	voices := speech.Voices{English: cfg.TTS.VoiceEN, Portuguese: cfg.TTS.VoicePT}

	orchestrator := service.NewOrchestrator(bank, contentCache, client, translator, normalizer, pipeline, resolver, voices)

	return &app{cfg: cfg, store: store, orchestrator: orchestrator}, nil
}

// loadBank loads the question data, preferring an override file when one
// is configured. A load failure here is fatal: the service refuses to
// start without its question bank.
func loadBank(cfg *config.Config) (*question.Bank, error) {
	if cfg.Questions.BankPath != "" {
		return question.LoadFile(cfg.Questions.BankPath)
	}
	return question.LoadEmbedded()
}
