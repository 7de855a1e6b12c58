package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	short, err := EstimateTokens("olá")
	if err != nil {
		t.Skipf("token encoder unavailable: %v", err)
	}
	assert.Greater(t, short, 0)

	long, err := EstimateTokens(strings.Repeat("planejamento estratégico ", 50))
	assert.NoError(t, err)
	assert.Greater(t, long, short)
}

func TestEstimateTokensEmpty(t *testing.T) {
	n, err := EstimateTokens("")
	if err != nil {
		t.Skipf("token encoder unavailable: %v", err)
	}
	assert.Equal(t, 0, n)
}
