package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthgate/hearth/hearth/database/models"
)

// seqRand replays a fixed sequence of draws, wrapping around.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand []string
		want int
	}{
		{name: "numeric cards", hand: []string{"2♠", "9♥"}, want: 11},
		{name: "ten", hand: []string{"10♠", "10♥"}, want: 20},
		{name: "mixed numerics", hand: []string{"10♠", "5♥", "2♦"}, want: 17},
		{name: "face cards count ten", hand: []string{"J♠", "Q♥", "K♦"}, want: 30},
		{name: "single ace high", hand: []string{"A♠", "7♥"}, want: 18},
		{name: "blackjack", hand: []string{"A♠", "K♥"}, want: 21},
		{name: "two aces soft-reduce to twelve", hand: []string{"A♠", "A♥"}, want: 12},
		{name: "ace reduces on bust", hand: []string{"A♠", "9♥", "5♦"}, want: 15},
		{name: "chained ace reduction", hand: []string{"A♠", "A♥", "A♦", "9♣"}, want: 12},
		{name: "ace stays high when safe", hand: []string{"A♠", "5♥", "5♦"}, want: 21},
		{name: "hard bust", hand: []string{"K♠", "Q♥", "5♦"}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handValue(tt.hand))
		})
	}
}

func TestHandValueInitialDealBounds(t *testing.T) {
	r := &seqRand{vals: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}
	for i := 0; i < 200; i++ {
		hand := deal(r)
		require.Len(t, hand, 2)
		value := handValue(hand)
		assert.GreaterOrEqual(t, value, 4)
		assert.LessOrEqual(t, value, 21)
	}
}

func TestDrawCardNoDuplicatesWithinHand(t *testing.T) {
	// A constant source forces collisions until the retry loop moves on.
	r := &seqRand{vals: []int{3, 1, 3, 1, 3, 1, 3, 2, 5, 0}}
	hand := deal(r)
	require.Len(t, hand, 2)
	assert.NotEqual(t, hand[0], hand[1])
}

func TestDealerPlay(t *testing.T) {
	t.Run("plays to completion", func(t *testing.T) {
		r := &seqRand{vals: []int{0, 0, 1, 1, 2, 2, 3, 3, 4, 0}}
		hand := dealerPlay(r, []string{"2♠", "3♥"}, 0)
		assert.GreaterOrEqual(t, handValue(hand), dealerStand)
	})

	t.Run("single courtesy draw", func(t *testing.T) {
		r := &seqRand{vals: []int{0, 1}}
		hand := dealerPlay(r, []string{"5♠", "6♥"}, 1)
		assert.Len(t, hand, 3)
	})

	t.Run("stands at threshold", func(t *testing.T) {
		r := &seqRand{vals: []int{0}}
		hand := dealerPlay(r, []string{"K♠", "7♥"}, 0)
		assert.Len(t, hand, 2)
	})
}

func TestCensorDealer(t *testing.T) {
	censored := censorDealer([]string{"K♠", "7♥", "2♦"})
	assert.Equal(t, []string{"K♠", "??", "??"}, censored)
}

func TestEvaluate(t *testing.T) {
	win, lose, tie := models.GameWin, models.GameLose, models.GameTie

	tests := []struct {
		name   string
		user   int
		dealer int
		stood  bool
		want   *models.GameResult
	}{
		{name: "user bust", user: 22, dealer: 17, stood: false, want: &lose},
		{name: "user bust beats dealer bust", user: 25, dealer: 23, stood: false, want: &lose},
		{name: "user twentyone", user: 21, dealer: 18, stood: false, want: &win},
		{name: "both twentyone", user: 21, dealer: 21, stood: false, want: &tie},
		{name: "dealer bust", user: 15, dealer: 22, stood: false, want: &win},
		{name: "dealer twentyone", user: 18, dealer: 21, stood: false, want: &lose},
		{name: "stand dealer ahead", user: 18, dealer: 20, stood: true, want: &lose},
		{name: "stand user ahead", user: 20, dealer: 18, stood: true, want: &win},
		{name: "stand push", user: 19, dealer: 19, stood: true, want: &tie},
		{name: "hit below dealer stays open", user: 15, dealer: 17, stood: false, want: nil},
		{name: "hit above dealer stays open", user: 20, dealer: 18, stood: false, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate(tt.user, tt.dealer, tt.stood)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
