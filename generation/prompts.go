package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func messagePrompt(req MessageRequest, lengthInstruction, language string) string {
	return fmt.Sprintf(`Write a warm %s greeting card message from %s to %s.

Requirements:
1. Respond in JSON.
2. "content": only the body of the message. Never include "To. %s" or "From. %s". Start with a greeting and finish with a closing line.
3. "ending": a short phrase to place before the sender's name (for example "From", "With love", "Your friend").
4. Write in %s.
5. Length: %s

Example:
{"content": "Happy birthday! I hope today is the happiest day of your life. Eat something delicious and have fun!", "ending": "Your friend"}`,
		req.Theme, req.Sender, req.Recipient, req.Recipient, req.Sender, language, lengthInstruction)
}

func captionPrompt(theme string) string {
	return fmt.Sprintf(`Create a very short, elegant, 1-line phrase in English for a %s card.
Examples: "Merry Christmas", "Happy Birthday to You", "Best Wishes", "Love You Always".
No quotes in output. Just the text.`, theme)
}

func imagePrompt(theme, subject, style string) string {
	if subject == "" {
		subject = theme + " celebration scene"
	}
	return fmt.Sprintf(`Generate a high-quality image for a greeting card.
Style: %s.
Subject: %s.
Mood: Warm, Happy, Celebration.
Important: FULL BLEED, EDGE TO EDGE. Do NOT include any white borders, frames, or margins around the image. The image must fill the entire canvas.

CRITICAL: DO NOT INCLUDE ANY TEXT, WORDS, LETTERS, OR TYPOGRAPHY IN THE IMAGE. The image must be purely visual.`, style, subject)
}

func stickersPrompt(topic string) string {
	return fmt.Sprintf(`Generate a JSON array of %d distinct emojis or unicode symbols that strongly relate to the theme: "%s".
They should be varied (objects, faces, symbols).
Example output: ["🎄", "🎅", "🎁", "❄️", "⛄", "🔔", "🕯️", "🍪", "🍷", "🌟"]
Return ONLY the JSON array.`, MaxStickers, topic)
}

func colorPrompt(theme string) string {
	return fmt.Sprintf(`Suggest a single, beautiful, soft pastel or elegant hex color code for the background of a "%s" greeting card.
Return ONLY the hex code in JSON format.
Example: {"color": "#FFE4E1"}`, theme)
}

func fontPrompt(theme, message string, fonts []string) string {
	return fmt.Sprintf(`Select the single best matching font from the list below for a greeting card.
Context - Theme: "%s", Message mood: "%s".

Available fonts: %s.

Guidelines:
- Handwriting or cute fonts suit casual, birthday, love and friendship cards.
- Serif or traditional fonts suit thank you, new year and respectful cards.
- Bold display fonts suit emphasis, cheering up and celebration titles.
- Clean modern fonts are a safe fallback.

Return ONLY the font value in JSON format.
Example: {"font": "Nanum Pen Script"}`, theme, excerpt(message, 50), strings.Join(fonts, ", "))
}

// excerpt cuts s to n runes, marking the cut.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
