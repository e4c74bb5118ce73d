package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCode(t *testing.T) {
	code := NewCode("EX")
	assert.Len(t, code, 15)
	assert.Equal(t, "EX", code[:2])
	for _, c := range code[2:] {
		assert.Contains(t, codeAlphabet, string(c))
	}
}

func TestNewCodeUniqueEnough(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := NewCode("BJ")
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestIntBetween(t *testing.T) {
	r := NewRand()
	for i := 0; i < 1000; i++ {
		v := IntBetween(r, 40, 120)
		assert.GreaterOrEqual(t, v, int64(40))
		assert.LessOrEqual(t, v, int64(120))
	}
	assert.Equal(t, int64(7), IntBetween(r, 7, 7))
}
