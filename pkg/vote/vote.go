// pkg/vote/vote.go
package vote

import (
	"github.com/opd-ai/go-tankwar/pkg/event"
)

// Tally counts votes over a fixed option list. Each voter holds one
// vote; casting again moves it. An out-of-range option index is
// silently ignored.
type Tally struct {
	options []string
	ballots map[int]int // voter id -> option index
	closed  bool
	bus     *event.Bus
}

// NewTally creates an open tally over the named options
func NewTally(bus *event.Bus, options []string) *Tally {
	return &Tally{
		options: options,
		ballots: make(map[int]int),
		bus:     bus,
	}
}

// Cast records a voter's choice. The last vote per voter wins.
func (t *Tally) Cast(voterID, optionIndex int) {
	if t.closed {
		return
	}
	if optionIndex < 0 || optionIndex > len(t.options)-1 {
		return
	}
	t.ballots[voterID] = optionIndex
}

// Counts returns the vote count per option index
func (t *Tally) Counts() []int {
	counts := make([]int, len(t.options))
	for _, idx := range t.ballots {
		counts[idx]++
	}
	return counts
}

// Winner returns the option with the most votes. Ties break toward
// the lowest option index, so with no votes at all option 0 wins.
func (t *Tally) Winner() (int, string) {
	counts := t.Counts()
	winner := 0
	for i, c := range counts {
		if c > counts[winner] {
			winner = i
		}
	}
	if len(t.options) == 0 {
		return -1, ""
	}
	return winner, t.options[winner]
}

// Votes returns how many ballots have been cast
func (t *Tally) Votes() int {
	return len(t.ballots)
}

// Options returns the option names
func (t *Tally) Options() []string {
	return t.options
}

// Close freezes the tally and publishes the result. Closing twice
// publishes once.
func (t *Tally) Close() (int, string) {
	winner, name := t.Winner()
	if t.closed {
		return winner, name
	}
	t.closed = true
	if t.bus != nil {
		t.bus.Publish(event.NewVoteEvent(t, winner, name, t.Counts()))
	}
	return winner, name
}
