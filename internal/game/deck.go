// internal/game/deck.go
package game

// Source picks a card position in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Deck holds the cards still in play during an iteration. Values are unique and
// always within [1, size].
type Deck struct {
	size  int
	cards []int
}

// NewDeck builds a full deck holding 1..size.
func NewDeck(size int) *Deck {
	d := &Deck{size: size, cards: make([]int, 0, size)}
	d.Reset()
	return d
}

// Reset puts every card back into the deck.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for c := 1; c <= d.size; c++ {
		d.cards = append(d.cards, c)
	}
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Size returns the number of cards in a full deck.
func (d *Deck) Size() int {
	return d.size
}

// Contains reports whether card is still in the deck.
func (d *Deck) Contains(card int) bool {
	for _, c := range d.cards {
		if c == card {
			return true
		}
	}
	return false
}

// Draw removes and returns a card chosen uniformly among the remaining ones.
// It returns false if the deck is empty.
func (d *Deck) Draw(src Source) (int, bool) {
	n := len(d.cards)
	if n == 0 {
		return 0, false
	}
	i := src.IntN(n)
	card := d.cards[i]
	// swap-remove; order of the remaining cards is irrelevant
	d.cards[i] = d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, true
}
