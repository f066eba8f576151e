package llm

// MaxPromptTextRunes is how much of the extracted text is sent for summarization.
const MaxPromptTextRunes = 4000

// BuildPrompt joins the instruction prefix with the head of the extracted text.
func BuildPrompt(prefix, text string) string {
	return prefix + "\n\n" + TruncateRunes(text, MaxPromptTextRunes)
}

// TruncateRunes keeps the first n characters of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
