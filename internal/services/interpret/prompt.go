package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
)

const companionPersona = `You are a wise companion who knows the I Ching and the ways of nature.
Speak warmly and plainly, as a friend, in the language of the request locale.
Explain cause and effect through seasons, trees, wind, and water; never through
religious vocabulary. Suggest practices anyone can do today.`

const readingInstruction = `Interpret the casting in the JSON payload for the user.
Reply with a single JSON object and nothing else, with these keys:
"statement_translation": a plain translation of the hexagram statement,
"explanation": the traditional meaning, paragraphs separated by blank lines,
"advice": personal advice that answers the user's question,
"core_summary": an array of exactly three short actionable sentences.`

const weeklyInstruction = `Write this week's journal entry for the subscriber in the JSON payload.
Follow the "theme" and the "passage". Reflect on "feedback" when present.
Reply with a single JSON object and nothing else, with these keys:
"koan": one question drawn from a paradox of nature, ending with a question mark,
"deep_insight": the interpretation, paragraphs separated by blank lines,
"weekly_ritual": "[title]" then a concrete practice, one sentence per paragraph.`

const sagePersona = `You are a calm mentor who joins the I Ching's view of change with Stoic
practice. Separate what the user controls from what they do not. Ground the anxious and
stir the complacent. Write in the language of the request locale.`

const premiumInstruction = `The user already received the reading in the JSON payload and asks the two
follow-up "questions". Answer each one in turn, drawing on the hexagram, the moving lines,
and the user's situation. Reply with a single JSON object and nothing else:
"advice": both answers, each starting with the question, paragraphs separated by blank lines.`

const reflectInstruction = `The user wrote the journal "entry" in the JSON payload after receiving
the reading. Reply with a single JSON object and nothing else, with these keys:
"title": a short poetic title,
"quote": one short resonant quote,
"reflection": a reflection that ties the entry to the hexagram, paragraphs separated by blank lines,
"action_item": one simple thing the user can do right now.`

const lineInstruction = `You are an I Ching scholar. Write one literary commentary
of about fifty characters on the line text below, in Korean.
End it the way a scholar describes an image or a season.`

type premiumPayload struct {
	interpretation.Request
	Questions []string `json:"questions"`
}

type reflectPayload struct {
	interpretation.Request
	Entry string `json:"entry"`
}

// payload renders the request as the user message.
func payload(instruction string, req interpretation.Request) (string, error) {
	return payloadWith(instruction, req)
}

func payloadWith(instruction string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal interpretation request: %w", err)
	}
	return instruction + "\n\n" + string(data), nil
}

func linePrompt(hexagramName, lineText string) string {
	return fmt.Sprintf("%s\n\nHexagram: %s\nLine: %q", lineInstruction, hexagramName, lineText)
}

// stripFences removes a markdown code fence around a JSON reply.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
