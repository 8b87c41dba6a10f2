package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/moirai-app/moirai/internal/tarot"
)

// ToolHandler executes one function call requested by the model. Arguments
// arrive as decoded JSON; the result map is sent back as the function
// response.
type ToolHandler func(ctx context.Context, args map[string]any) (map[string]any, error)

// Capability pairs a function declaration exposed to the model with the
// handler that services it.
type Capability struct {
	Declaration *genai.FunctionDeclaration
	Handle      ToolHandler
}

type wellnessActivity struct {
	Name        string
	Description string
	Steps       []string
}

// wellnessActivities maps a dominant negative emotion to a fixed grounding
// ritual. Unknown emotions fall through to the default entry.
var wellnessActivities = map[string]wellnessActivity{
	"anxiety": {
		Name:        "5-4-3-2-1 Grounding Ritual",
		Description: "A grounding technique to anchor your spirit to the present plane when anxious energies cloud your vision. It helps you return from the astral noise to your physical self.",
		Steps: []string{
			"Acknowledge 5 things you can SEE. Observe their form and presence in this moment.",
			"Acknowledge 4 things you can FEEL (the earth beneath your feet, the air on your skin, the texture of your robes).",
			"Acknowledge 3 things you can HEAR (the hum of the universe, your own breath, a distant echo).",
			"Acknowledge 2 things you can SMELL. If the air is still, imagine two of your most sacred scents (e.g., sandalwood, rain).",
			"Acknowledge 1 thing you can TASTE. It can be a sip of water, or simply the essence of the air you breathe.",
		},
	},
	"stress": {
		Name:        "Four-Fold Breath",
		Description: "A controlled breathing technique to calm your spiritual energy when you feel overwhelmed. It regulates your life force and provides a point of focus.",
		Steps: []string{
			"Breathe in slowly through your nose, counting to four, drawing in universal energy.",
			"Hold this breath for a count of four, letting the energy settle within you.",
			"Exhale slowly through your mouth for a count of four, releasing all that no longer serves you.",
			"Pause, empty, for a count of four, finding stillness in the void.",
			"Repeat this cycle four times, or until you feel your spirit calm.",
		},
	},
	"sadness": {
		Name:        "The Ritual of Small Action",
		Description: "When sorrow drains your spirit, stagnation can amplify it. This ritual uses a small, deliberate act to break the stillness and invite movement back into your life.",
		Steps: []string{
			"Choose a very simple, manageable task. One you can complete in five minutes.",
			"Ideas: Light a candle and watch its flame, water a single plant, tidy one corner of your sacred space, or stretch your body for 5 minutes.",
			"Set a timer for 5 minutes and devote yourself only to this act.",
			"When finished, acknowledge that you have shifted the energy. You don't need to feel joyous, just recognize the act itself.",
			"Sometimes, the smallest ripple is all that's needed to change the tides.",
		},
	},
	"anger": {
		Name:        "The Sacred Pause",
		Description: "This practice creates a space between the fire of anger and a reactive outburst, allowing you to respond with wisdom, not just heat.",
		Steps: []string{
			"Pause. Do not act or speak immediately. If you can, physically take a step back.",
			"Take three deep, deliberate breaths, feeling the cool air enter and warm air leave.",
			"Name the energy within. Say to your inner self: 'Anger is present. It is a powerful fire'.",
			"Ask your spirit: 'What do I truly need in this moment?'. The answer might be space, calm, or to define a boundary later with intention.",
			"Decide your next move from a place of cool wisdom, not from the heart of the flame.",
		},
	},
	"default": {
		Name:        "Mindful Moment",
		Description: "A simple mindfulness ritual to return to the present moment and grant your spirit a moment of peace.",
		Steps: []string{
			"Pause for a moment and close your eyes if it feels right.",
			"Take three deep, slow breaths.",
			"Focus only on the sensation of air as it flows in and out of your body.",
			"Do not try to change anything, simply observe.",
			"When you are ready, open your eyes.",
		},
	},
}

func lookupWellnessActivity(emotion string) wellnessActivity {
	if a, ok := wellnessActivities[strings.ToLower(strings.TrimSpace(emotion))]; ok {
		return a
	}
	return wellnessActivities["default"]
}

// newCapabilityRegistry builds the tool set offered to the conversational
// capability. Handlers close over the client so the tarot tool can run its
// interpretation call through the same model.
func (c *sdkClient) newCapabilityRegistry() map[string]Capability {
	return map[string]Capability{
		"get_current_datetime": {
			Declaration: &genai.FunctionDeclaration{
				Name:        "get_current_datetime",
				Description: "Returns the current date and time as a formatted string. Use it only when the user explicitly asks for the day or the time.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
			Handle: func(_ context.Context, _ map[string]any) (map[string]any, error) {
				return map[string]any{
					"datetime": c.now().Format("Monday, January 2, 2006 at 15:04"),
				}, nil
			},
		},
		"get_wellness_activity": {
			Declaration: &genai.FunctionDeclaration{
				Name:        "get_wellness_activity",
				Description: "Suggests a grounding ritual or spiritual practice if the seeker expresses a strong negative emotion (anxiety, stress, sadness, or anger) and seems ensnared by it. Use this to offer practical, actionable spiritual aid.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"emotion": {Type: genai.TypeString, Description: "The seeker's dominant negative energy, such as 'anxiety', 'stress', 'sadness', or 'anger'."},
					},
					Required: []string{"emotion"},
				},
			},
			Handle: func(_ context.Context, args map[string]any) (map[string]any, error) {
				emotion, _ := args["emotion"].(string)
				a := lookupWellnessActivity(emotion)
				return map[string]any{
					"name":        a.Name,
					"description": a.Description,
					"steps":       a.Steps,
				}, nil
			},
		},
		"get_tarot_reading": {
			Declaration: &genai.FunctionDeclaration{
				Name:        "get_tarot_reading",
				Description: "Performs a three-card (past, present, future) tarot reading. Use this when a user explicitly asks for a 'reading', a 'card', a 'tirada', or something similar to get insight into their situation.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"user_query": {Type: genai.TypeString, Description: "The user's question or the situation they want clarity on. This provides context for the reading."},
					},
					Required: []string{"user_query"},
				},
			},
			Handle: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				query, _ := args["user_query"].(string)
				reading, err := c.interpretReading(ctx, query, tarot.Draw())
				if err != nil {
					return nil, fmt.Errorf("tarot interpretation failed: %w", err)
				}
				return map[string]any{"reading": reading}, nil
			},
		},
	}
}

// interpretReading runs the second model call that narrates a drawn spread.
func (c *sdkClient) interpretReading(ctx context.Context, userQuery string, spread tarot.Spread) (string, error) {
	c.log.DebugContext(ctx, "Interpreting tarot spread", "past", spread.Past, "present", spread.Present, "future", spread.Future)

	prompt := fmt.Sprintf(TarotInterpretationPrompt, userQuery, spread.Past, spread.Present, spread.Future)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.Tools = nil
	copyCfg.SystemInstruction = nil

	resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return c.extractTextFromResponse(ctx, resp)
}
