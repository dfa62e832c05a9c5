package skill

import "time"

// Score deltas applied by Transition.
const (
	HotStreakThreshold = 3

	HotStreakGain   = 5
	AboveLevelGain  = 3
	BaselineGain    = 2
	OnStreakPenalty = 2
	BelowLevelLoss  = 5
	BaselineLoss    = 3
)

// ClampDifficulty forces d into [MinDifficulty, MaxDifficulty]. The second
// return value reports whether d was out of range.
func ClampDifficulty(d int) (int, bool) {
	switch {
	case d < MinDifficulty:
		return MinDifficulty, true
	case d > MaxDifficulty:
		return MaxDifficulty, true
	}
	return d, false
}

// Transition computes the state after one judged answer. It is pure: the
// input state is not modified and now is the only source of time.
//
// The hot-streak bonus is checked before the above-level bonus. On failure,
// losing a streak costs less than failing a question below the current
// score. An out-of-range difficulty is clamped before use.
func Transition(s State, correct bool, difficulty int, now time.Time) State {
	difficulty, _ = ClampDifficulty(difficulty)
	next := s

	if correct {
		delta := BaselineGain
		switch {
		case s.Streak >= HotStreakThreshold:
			delta = HotStreakGain
		case difficulty > s.Score:
			delta = AboveLevelGain
		}
		next.Score = clampScore(s.Score + delta)
		next.Streak = s.Streak + 1
		next.TotalCorrect++
	} else {
		penalty := BaselineLoss
		switch {
		case s.Streak > 0:
			penalty = OnStreakPenalty
		case difficulty < s.Score:
			penalty = BelowLevelLoss
		}
		next.Score = clampScore(s.Score - penalty)
		next.Streak = 0
	}

	if next.Streak > next.BestStreak {
		next.BestStreak = next.Streak
	}
	next.TotalAttempted++
	next.LastPracticedAt = now
	return next
}

func clampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
