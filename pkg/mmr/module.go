// https://github.com/kortemy/elo-go
//MIT License

//Copyright (c) 2017 Dusan Lilic

//Permission is hereby granted, free of charge, to any person obtaining a copy
//of this software and associated documentation files (the "Software"), to deal
//in the Software without restriction, including without limitation the rights
//to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
//copies of the Software, and to permit persons to whom the Software is
//furnished to do so, subject to the following conditions:

//The above copyright notice and this permission notice shall be included in all
//copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
package mmr

import (
	"fmt"
	"math"
)

const (
	// K is the default K-Factor
	K = 32
	// D is the default deviation
	D = 400
	// DefaultRating is what a player is rated before they have any history.
	DefaultRating = 1200
)

// Elo calculates Elo rating changes based on the configured factors.
type Elo struct {
	K int
	D int
}

// Outcome is a match result data for a single player.
type Outcome struct {
	Delta  int
	Rating int
}

func (o Outcome) String() string {
	if o.Delta > 0 {
		return fmt.Sprintf("%d (+%d)", o.Rating, o.Delta)
	}
	return fmt.Sprintf("%d (%d)", o.Rating, o.Delta)
}

// NewElo instantiates the Elo object with default factors.
// Default K-Factor is 32
// Default deviation is 400
func NewElo() *Elo {
	return &Elo{K, D}
}

// ExpectedScore gives the expected chance that the first player wins
func (e *Elo) ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/float64(e.D)))
}

// Rating gives the new rating for the first player for the given score.
// Rounds half away from zero.
func (e *Elo) Rating(ratingA, ratingB int, score float64) int {
	expected := e.ExpectedScore(ratingA, ratingB)
	return int(math.Round(float64(ratingA) + float64(e.K)*(score-expected)))
}

// Outcome gives an Outcome object for each player for the given score of
// the first player. Each side is rounded on its own, so the deltas are not
// always exact opposites.
func (e *Elo) Outcome(ratingA, ratingB int, score float64) (Outcome, Outcome) {
	expectedA := e.ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA
	scoreB := 1 - score

	newA := int(math.Round(float64(ratingA) + float64(e.K)*(score-expectedA)))
	newB := int(math.Round(float64(ratingB) + float64(e.K)*(scoreB-expectedB)))

	return Outcome{newA - ratingA, newA}, Outcome{newB - ratingB, newB}
}

// Calculate returns both new ratings for scoreA in {0, 0.5, 1} using the
// default factors.
func Calculate(ratingA, ratingB int, scoreA float64) (newRatingA int, newRatingB int) {
	a, b := NewElo().Outcome(ratingA, ratingB, scoreA)
	return a.Rating, b.Rating
}
