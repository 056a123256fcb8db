package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// EstimateTokens approximates the token count with cl100k_base. Mistral uses
// its own vocabulary, so treat the number as a metric, not a budget.
func EstimateTokens(text string) int {
	c, err := getCodec()
	if err != nil {
		return len(text) / 4
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}

func EstimateHistoryTokens(history []Message) int {
	total := 0
	for _, msg := range history {
		total += EstimateTokens(msg.Content)
	}
	return total
}
