package usecase

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"orgpilot/internal/domain"
)

// tokenEncoding is the tokenizer used for prompt size estimates. It is an
// approximation for Gemini models but close enough for a safety ceiling.
const tokenEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// EstimateTokens counts tokens in s using a shared encoder. The encoder is
// built lazily: the first call pays the BPE load.
func EstimateTokens(s string) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(tokenEncoding)
	})
	if encErr != nil {
		return 0, domain.NewDomainError("EstimateTokens", domain.ErrConfiguration, encErr.Error())
	}
	return len(enc.Encode(s, nil, nil)), nil
}
