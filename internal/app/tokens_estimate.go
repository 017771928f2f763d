package app

import "unicode/utf8"

// EstimateTokens approximates the token cost of a piece of text. It is
// not a tokenizer; it only has to be deterministic and monotonic in the
// text so the budget check stays stable within a session, and it leans
// high so summarization triggers early rather than late.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// BPE tokenizers land around 3-4 chars per token for English prose.
	// runes/2 sets the price for ASCII text; bytes/3 takes over for
	// multibyte scripts where runes undercount.
	byBytes := len(text) / 3
	byRunes := utf8.RuneCountInString(text) / 2
	if byRunes > byBytes {
		return byRunes
	}
	return byBytes
}
