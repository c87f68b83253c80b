package services

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenBudgetEncoding = "cl100k_base"

// runesPerToken approximates token length when no encoder is available.
const runesPerToken = 4

// TokenBudget caps free text at a number of tokens.
type TokenBudget struct {
	MaxTokens int

	load    func() (*tiktoken.Tiktoken, error)
	once    sync.Once
	encoder *tiktoken.Tiktoken
}

func NewTokenBudget(maxTokens int) *TokenBudget {
	return &TokenBudget{
		MaxTokens: maxTokens,
		load: func() (*tiktoken.Tiktoken, error) {
			return tiktoken.GetEncoding(tokenBudgetEncoding)
		},
	}
}

func (b *TokenBudget) encoding() *tiktoken.Tiktoken {
	b.once.Do(func() {
		if b.load == nil {
			return
		}
		enc, err := b.load()
		if err == nil {
			b.encoder = enc
		}
	})
	return b.encoder
}

// Truncate returns text cut to the budget. A nil budget or non-positive MaxTokens keeps text intact.
func (b *TokenBudget) Truncate(text string) string {
	if b == nil || b.MaxTokens <= 0 {
		return text
	}
	if enc := b.encoding(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= b.MaxTokens {
			return text
		}
		return strings.TrimSpace(enc.Decode(tokens[:b.MaxTokens]))
	}
	return strings.TrimSpace(Truncate(text, b.MaxTokens*runesPerToken))
}
