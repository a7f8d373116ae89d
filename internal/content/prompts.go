package content

import "fmt"

// CaptionSystemPrompt is the system prompt for caption generation.
const CaptionSystemPrompt = "You are a Reuters photo caption formatter assistant."

// Section headings the caption prompt asks the model to emit.
const (
	HeadingCaption   = "REUTERS FORMATTED CAPTION"
	HeadingMissing   = "MISSING INFORMATION"
	HeadingFollowUps = "FOLLOW-UP QUESTIONS"
)

// CaptionUserPrompt wraps a photographer's spoken description in the
// Reuters caption instructions.
func CaptionUserPrompt(transcription string) string {
	return fmt.Sprintf(`You are a Reuters photo caption formatter. Convert this photographer's spoken description into proper Reuters style format using ONLY the information provided. Follow Reuters standards for present tense, active voice, complete identification, specific location, date, and context. If critical information is missing (names, exact location, date, or newsworthy context), clearly identify what additional details are needed.

Spoken description: %s

IMPORTANT: Do not use any markdown formatting (no **, no *, no #, etc.). Use plain text only.

When you are done, use the save_caption tool to provide:
1. formatted_caption: the %s (if possible with available info)
2. missing_information: the %s NEEDED (list what's required, empty if nothing is missing)
3. follow_up_questions: the %s (specific questions to ask the photographer)

If you cannot use the tool, answer in plain text with the three headings %s, %s NEEDED and %s.`,
		transcription,
		HeadingCaption, HeadingMissing, HeadingFollowUps,
		HeadingCaption, HeadingMissing, HeadingFollowUps)
}
