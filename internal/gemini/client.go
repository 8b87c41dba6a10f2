// Package gemini implements integration with Google's Gemini AI API.
// It provides the oracle's language capabilities: conversational responses
// with tool dispatch, daily summaries, fact extraction, and conversation
// starters.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/moirai-app/moirai/internal/config"
	"github.com/moirai-app/moirai/internal/store"
)

// maxToolRounds bounds the function-call dispatch loop: after this many
// model turns without a text answer the response is treated as a failure.
const maxToolRounds = 4

// ResponseInput carries everything the conversational capability needs to
// answer one seeker message.
type ResponseInput struct {
	Message             string
	ConversationHistory string
	UserFacts           []string
	Language            store.Language
	TarotReadingDone    bool
	UserName            string
	UserGender          store.Gender
	Personality         store.Personality
}

// SummaryInput carries one day's transcript for the daily summary capability.
type SummaryInput struct {
	ConversationHistory string
	UserFacts           []string
	Language            store.Language
}

// SummaryResult is the structured output of the daily summary capability.
type SummaryResult struct {
	Summary          string
	OverallEmotion   store.Emotion
	ConversationTime int
}

// Client defines the interface for AI operations used throughout the
// application.
type Client interface {
	GenerateResponse(ctx context.Context, input ResponseInput) (string, error)

	GenerateDailySummary(ctx context.Context, input SummaryInput) (SummaryResult, error)

	ExtractFacts(ctx context.Context, transcript string, existingFacts []string) ([]string, error)

	GenerateStarter(ctx context.Context, language store.Language) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
	now           func() time.Time
	capabilities  map[string]Capability
}

// NewClient creates a new Gemini AI client with the provided configuration.
// It initializes the connection to the Gemini API and sets up the capability
// registry for tool dispatch.
func NewClient(
	ctx context.Context,
	cfg config.GeminiConfig,
	log *slog.Logger,
) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}

	logger := log.With("component", "gemini_client")
	c := &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
		now:           time.Now,
	}
	c.capabilities = c.newCapabilityRegistry()

	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return c, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) { // Retriable HTTP codes
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries with APIError", "error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

// languageName expands a language tag for prompt text. The model follows a
// spelled-out language name more reliably than a bare tag.
func languageName(l store.Language) string {
	if l == store.LanguageSpanish {
		return "Spanish (es)"
	}
	return "English (en)"
}

func writeFactList(sb *strings.Builder, facts []string, emptyNote string) {
	if len(facts) == 0 {
		sb.WriteString(emptyNote + "\n")
		return
	}
	for _, f := range facts {
		sb.WriteString("- " + f + "\n")
	}
}

// GenerateResponse answers one seeker message, dispatching tool calls through
// the capability registry until the model produces text.
func (c *sdkClient) GenerateResponse(ctx context.Context, input ResponseInput) (string, error) {
	c.log.DebugContext(ctx, "Generating response", "history_len", len(input.ConversationHistory), "fact_count", len(input.UserFacts))

	personality := input.Personality
	if personality == "" {
		personality = store.PersonalityWise
	}
	lang := languageName(input.Language)

	var sb strings.Builder
	sb.WriteString("USER PROFILE:\n")
	if input.UserName != "" {
		sb.WriteString("- Name: " + input.UserName + "\n")
	} else {
		sb.WriteString("- Name: (Not provided)\n")
	}
	if input.UserGender != "" {
		sb.WriteString("- Gender: " + string(input.UserGender) + "\n")
	} else {
		sb.WriteString("- Gender: (Not provided)\n")
	}

	sb.WriteString("\nKNOWN FACTS ABOUT THE USER (THEIR JOURNEY SO FAR):\n")
	writeFactList(&sb, input.UserFacts, "(This is the beginning of our journey together)")

	if input.TarotReadingDone {
		sb.WriteString("\nTAROT STATUS: A full tarot reading has already been performed today. Do NOT perform another one.\n")
	} else {
		sb.WriteString("\nTAROT STATUS: No tarot reading has been performed today.\n")
	}

	sb.WriteString("\nCONTEXT OF THE CONVERSATION (RECENT REFLECTIONS):\n")
	if input.ConversationHistory != "" {
		sb.WriteString(input.ConversationHistory + "\n")
	} else {
		sb.WriteString("This is our first session. Greet the user warmly and invite them to share what's on their mind.\n")
	}

	sb.WriteString("\nUser's Query: " + input.Message)

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	declarations := make([]*genai.FunctionDeclaration, 0, len(c.capabilities))
	for _, capability := range c.capabilities {
		declarations = append(declarations, capability.Declaration)
	}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{
		{Text: fmt.Sprintf(OracleSystemInstruction, personality, lang, lang, personality)},
	}}
	copyCfg.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
		if err != nil {
			c.log.ErrorContext(ctx, "Gemini response generation failed", "error", err)
			return "", fmt.Errorf("gemini API call failed: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return c.extractTextFromResponse(ctx, resp)
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, c.dispatchCall(ctx, call))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	c.log.ErrorContext(ctx, "Tool dispatch did not converge", "max_rounds", maxToolRounds)
	return "", fmt.Errorf("tool dispatch exceeded %d rounds without a text response", maxToolRounds)
}

// dispatchCall services one function call and packages the outcome as a
// function response part. Handler errors are reported back to the model
// rather than aborting the turn.
func (c *sdkClient) dispatchCall(ctx context.Context, call *genai.FunctionCall) *genai.Part {
	capability, ok := c.capabilities[call.Name]
	if !ok {
		c.log.WarnContext(ctx, "Model requested unknown tool", "tool", call.Name)
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{"error": "unknown tool"})
	}

	c.log.InfoContext(ctx, "Dispatching tool call", "tool", call.Name)
	result, err := capability.Handle(ctx, call.Args)
	if err != nil {
		c.log.WarnContext(ctx, "Tool call failed", "tool", call.Name, "error", err)
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{"error": err.Error()})
	}
	return genai.NewPartFromFunctionResponse(call.Name, result)
}

var dailySummarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":          {Type: genai.TypeString, Description: "A single, concise, and insightful sentence that captures the essence of the day's spiritual reading."},
		"overallEmotion":   {Type: genai.TypeString, Enum: []string{"Auspicious", "Neutral", "Challenging"}, Description: "The dominant cosmic energy of the day."},
		"conversationTime": {Type: genai.TypeInteger, Description: "An estimate of the total number of minutes the reading lasted."},
	},
	Required: []string{"summary", "overallEmotion", "conversationTime"},
}

// GenerateDailySummary condenses one day's transcript into a single-sentence
// summary with an emotion classification, using JSON schema mode.
func (c *sdkClient) GenerateDailySummary(ctx context.Context, input SummaryInput) (SummaryResult, error) {
	c.log.DebugContext(ctx, "Generating daily summary", "history_len", len(input.ConversationHistory))

	var sb strings.Builder
	sb.WriteString("ADDITIONAL CONTEXT ABOUT THE SEEKER (THREADS OF FATE):\n")
	writeFactList(&sb, input.UserFacts, "(No additional context on the seeker is available)")
	sb.WriteString("\nTHE DAY'S CONVERSATION HISTORY TO ANALYZE:\n")
	sb.WriteString(input.ConversationHistory)

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{
		{Text: fmt.Sprintf(DailySummarySystemInstruction, languageName(input.Language))},
	}}
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = dailySummarySchema

	resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini daily summary API call failed", "error", err)
		return SummaryResult{}, fmt.Errorf("failed to generate daily summary: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("failed to extract summary response: %w", err)
	}

	var parsed struct {
		Summary          string `json:"summary"`
		OverallEmotion   string `json:"overallEmotion"`
		ConversationTime int    `json:"conversationTime"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse summary JSON from Gemini response", "error", err, "response_text", jsonText)
		return SummaryResult{}, fmt.Errorf("invalid summary JSON received: %w", err)
	}

	emotion := store.Emotion(parsed.OverallEmotion)
	switch emotion {
	case store.EmotionAuspicious, store.EmotionNeutral, store.EmotionChallenging:
	default:
		return SummaryResult{}, fmt.Errorf("unexpected emotion %q in summary response", parsed.OverallEmotion)
	}
	if parsed.ConversationTime < 0 {
		parsed.ConversationTime = 0
	}

	return SummaryResult{
		Summary:          parsed.Summary,
		OverallEmotion:   emotion,
		ConversationTime: parsed.ConversationTime,
	}, nil
}

var factListSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"facts": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "A list of new, unique, non-trivial facts extracted from the conversation."},
	},
	Required: []string{"facts"},
}

// ExtractFacts pulls new long-term facts about the seeker out of a
// transcript. An empty transcript short-circuits to an empty result without
// a model call.
func (c *sdkClient) ExtractFacts(ctx context.Context, transcript string, existingFacts []string) ([]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}
	c.log.DebugContext(ctx, "Extracting facts", "history_len", len(transcript), "existing_fact_count", len(existingFacts))

	var sb strings.Builder
	sb.WriteString("EXISTING FACTS (DO NOT REPEAT):\n")
	writeFactList(&sb, existingFacts, "(No existing facts are known)")
	sb.WriteString("\nCONVERSATION HISTORY TO ANALYZE:\n")
	sb.WriteString(transcript)

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: FactExtractionSystemInstruction}}}
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = factListSchema

	resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini fact extraction API call failed", "error", err)
		return nil, fmt.Errorf("failed to extract facts: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("failed to extract facts response: %w", err)
	}

	var parsed struct {
		Facts []string `json:"facts"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse facts JSON from Gemini response", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid facts JSON received: %w", err)
	}

	c.log.DebugContext(ctx, "Facts extracted", "new_fact_count", len(parsed.Facts))
	return parsed.Facts, nil
}

// GenerateStarter produces a single mystical opening line in the given
// language.
func (c *sdkClient) GenerateStarter(ctx context.Context, language store.Language) (string, error) {
	prompt := fmt.Sprintf(StarterPrompt, languageName(language))
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	copyCfg := *c.contentConfig

	resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini starter generation failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return c.extractTextFromResponse(ctx, resp)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	op := "gemini_operation"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			parts := strings.Split(fn.Name(), ".")
			if len(parts) >= 2 {
				op = parts[len(parts)-1]
			}
		}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "operation", op, "reason", reasonMsg)
		return "", fmt.Errorf("%s blocked by safety filter: %s", op, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "operation", op, "finish_reason", finishReason)

		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonStop {
			return "", fmt.Errorf("%s returned no content, finish reason: %s", op, finishReason)
		}

		return "", fmt.Errorf("%s returned empty content", op)
	}

	text := strings.TrimSpace(resp.Text())
	// The model occasionally parrots the transcript's speaker label.
	text = strings.TrimPrefix(text, "Oracle: ")
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty", "operation", op)
		return "", fmt.Errorf("%s returned empty text", op)
	}

	return text, nil
}
