package app

import "math"

const (
	baseCorrectScore = 1000
	maxTimeBonus     = 500
	streakStep       = 100
	maxStreakBonus   = 500
)

// CalculateQuizScore scores a correct answer: a 1000 point base, up to 500 for
// speed and up to 500 for the streak held before this answer. A negative
// timeMs means no answer and scores zero.
func CalculateQuizScore(timeMs, timeLimitMs, streak int) int {
	if timeMs < 0 {
		return 0
	}
	ratio := 0.0
	if timeLimitMs > 0 {
		ratio = math.Max(0, float64(timeLimitMs-timeMs)/float64(timeLimitMs))
	}
	timeBonus := int(math.Round(maxTimeBonus * ratio))
	streakBonus := streak * streakStep
	if streakBonus > maxStreakBonus {
		streakBonus = maxStreakBonus
	}
	if streakBonus < 0 {
		streakBonus = 0
	}
	return baseCorrectScore + timeBonus + streakBonus
}
