package scanning

import "strings"

// transcriptionPrompt is shared by the vision-model recognizers. The models are only
// asked to read; field extraction stays in the deterministic engine.
const transcriptionPrompt = `You are an OCR engine. Transcribe all text visible in this receipt image exactly as printed.

Rules:
- Keep the original line order and put each printed line on its own line
- Keep numbers, punctuation, currency symbols and dates exactly as printed
- Do not summarize, translate, correct or reformat anything
- Do not add any commentary before or after the text
- Do not use markdown code blocks
- If there is no readable text, return an empty response`

// cleanTranscript strips the markdown fences and chatter that vision models add
// despite being told not to
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// drop the opening fence line, including any language tag
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}
