package blackjack

import (
	"slices"

	"github.com/hearthgate/hearth/hearth/economy"
)

// dealerStand is the dealer's auto-play threshold: the dealer draws while
// below it and stands at or above it. Defined once; every dealer draw goes
// through dealerPlay.
const dealerStand = 17

const blackjack = 21

// hiddenCard is the placeholder substituted for the dealer's hole cards in
// responses while a game is in progress.
const hiddenCard = "??"

var ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

var suits = []string{"♠", "♥", "♦", "♣"}

// drawCard returns a rank+suit token not already present in hand. Each hand
// draws from conceptually infinite decks; the duplicate check is within-hand
// only, for flavor.
func drawCard(r economy.Rand, hand []string) string {
	for {
		card := economy.Pick(r, ranks) + economy.Pick(r, suits)
		if !slices.Contains(hand, card) {
			return card
		}
	}
}

// handValue scores a hand with the soft-ace rule: aces count 11, then drop
// to 1 one at a time while the total busts and an unreduced ace remains.
func handValue(hand []string) int {
	total, aces := 0, 0
	for _, card := range hand {
		rank := card[:len(card)-len("♠")]
		switch rank {
		case "J", "Q", "K":
			total += 10
		case "A":
			total += 11
			aces++
		default:
			v := 0
			for _, c := range rank {
				v = v*10 + int(c-'0')
			}
			total += v
		}
	}
	for total > blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// dealerPlay draws for the dealer until the stand threshold. With limit > 0
// at most that many cards are drawn (the single courtesy draw on a hit);
// limit <= 0 plays the hand to completion.
func dealerPlay(r economy.Rand, hand []string, limit int) []string {
	drawn := 0
	for handValue(hand) < dealerStand {
		if limit > 0 && drawn >= limit {
			break
		}
		hand = append(hand, drawCard(r, hand))
		drawn++
	}
	return hand
}

// censorDealer hides everything past the dealer's first card. InProgress
// responses carry the censored hand and a zero dealer value so the client
// learns nothing it should not.
func censorDealer(hand []string) []string {
	censored := make([]string, len(hand))
	censored[0] = hand[0]
	for i := 1; i < len(hand); i++ {
		censored[i] = hiddenCard
	}
	return censored
}
