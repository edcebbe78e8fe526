package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"quizzardo-service/internal/domain"
)

// PrizeFormula selects how prize amounts are derived from a quiz.
type PrizeFormula string

const (
	// PrizeTable pays prizeMoney[rank-1].
	PrizeTable PrizeFormula = "table"
	// PrizeSplit pays 50/30/20 percent of the prize pool to ranks 1-3.
	PrizeSplit PrizeFormula = "split"
)

var splitPercents = []int64{50, 30, 20}

// ParsePrizeFormula maps a config value to a formula; empty means PrizeTable.
func ParsePrizeFormula(raw string) (PrizeFormula, error) {
	switch PrizeFormula(raw) {
	case "", PrizeTable:
		return PrizeTable, nil
	case PrizeSplit:
		return PrizeSplit, nil
	}
	return "", fmt.Errorf("unknown prize formula %q", raw)
}

// RankResults orders results by score (desc), time spent (asc), completion time (asc)
// and user id, and assigns 1-based sequential ranks.
func RankResults(results []domain.Result) []domain.LeaderboardEntry {
	sorted := append([]domain.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TimeSpent != b.TimeSpent {
			return a.TimeSpent < b.TimeSpent
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.UserID < b.UserID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, r := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:       r.UserID,
			UserName:     r.UserName,
			Score:        r.Score,
			TimeSpent:    r.TimeSpent,
			Rank:         i + 1,
			Prize:        decimal.Zero,
			Disqualified: r.Disqualified,
		})
	}
	return entries
}

// PrizeFor returns the prize for a rank under the given formula.
func PrizeFor(quiz domain.Quiz, rank int, formula PrizeFormula) decimal.Decimal {
	if rank < 1 {
		return decimal.Zero
	}
	switch formula {
	case PrizeSplit:
		if rank > len(splitPercents) {
			return decimal.Zero
		}
		return quiz.PrizePool.Mul(decimal.NewFromInt(splitPercents[rank-1])).Div(decimal.NewFromInt(100))
	default:
		if rank > len(quiz.PrizeMoney) {
			return decimal.Zero
		}
		return quiz.PrizeMoney[rank-1]
	}
}

// BuildLeaderboard ranks results and attaches prizes. Disqualified entries keep their
// rank but are never paid.
func BuildLeaderboard(quiz domain.Quiz, results []domain.Result, formula PrizeFormula, now time.Time) domain.Leaderboard {
	entries := RankResults(results)
	for i := range entries {
		if entries[i].Disqualified {
			continue
		}
		entries[i].Prize = PrizeFor(quiz, entries[i].Rank, formula)
	}
	return domain.Leaderboard{
		QuizID:    quiz.ID,
		Entries:   entries,
		UpdatedAt: now,
	}
}
