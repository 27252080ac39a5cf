// Package ranking turns a session's frozen holes and score records into ranked standings.
//
// Every leaderboard and final-standings view goes through Rank, so live and
// final presentations can never disagree.
package ranking

import (
	"cmp"
	"slices"

	"github.com/abrezinsky/discround/internal/models"
)

// TotalPar returns the sum of par over holes
func TotalPar(holes []models.Hole) int {
	total := 0
	for _, h := range holes {
		total += h.Par
	}
	return total
}

// Rank computes standings for every participant. It has no side effects and
// does not modify its inputs.
//
// Totals fold each OB in as a one-stroke penalty. Order is ascending total,
// then player name (ordinal), then player ID. Ranks use competition ranking:
// equal totals share a rank and the next distinct total takes its 1-based
// position, e.g. 1,1,3,4. Participants without records still appear with a
// total of zero; HolesPlayed tells callers whether anything was scored.
// Records for holes outside the given hole list are ignored.
func Rank(holes []models.Hole, scores []models.ScoreRecord, participants []models.Participant) []models.Standing {
	totalPar := TotalPar(holes)

	parByHole := make(map[int]int, len(holes))
	for _, h := range holes {
		parByHole[h.HoleNumber] = h.Par
	}

	byParticipant := make(map[int64]map[int]models.ScoreRecord, len(participants))
	for _, rec := range scores {
		if _, ok := parByHole[rec.HoleNumber]; !ok {
			continue
		}
		if byParticipant[rec.ParticipationID] == nil {
			byParticipant[rec.ParticipationID] = make(map[int]models.ScoreRecord)
		}
		byParticipant[rec.ParticipationID][rec.HoleNumber] = rec
	}

	standings := make([]models.Standing, 0, len(participants))
	for _, p := range participants {
		st := models.Standing{
			ParticipationID: p.ParticipationID,
			PlayerID:        p.PlayerID,
			PlayerName:      p.PlayerName,
			PlayerImage:     p.PlayerImage,
			Holes:           []models.HoleResult{},
		}

		recs := byParticipant[p.ParticipationID]
		for _, h := range holes {
			rec, ok := recs[h.HoleNumber]
			if !ok {
				continue
			}
			st.TotalStrokes += rec.Strokes
			st.TotalOB += rec.OBCount
			st.HolesPlayed++
			st.Holes = append(st.Holes, models.HoleResult{
				HoleNumber:    h.HoleNumber,
				Par:           h.Par,
				Strokes:       rec.Strokes,
				OBCount:       rec.OBCount,
				RelativeToPar: rec.Strokes + rec.OBCount - h.Par,
			})
		}
		st.TotalScore = st.TotalStrokes + st.TotalOB
		st.ScoreRelativeToPar = st.TotalScore - totalPar

		standings = append(standings, st)
	}

	slices.SortStableFunc(standings, compareStandings)
	assignCompetitionRanks(standings)

	return standings
}

func compareStandings(a, b models.Standing) int {
	if c := cmp.Compare(a.TotalScore, b.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PlayerName, b.PlayerName); c != 0 {
		return c
	}
	return cmp.Compare(a.PlayerID, b.PlayerID)
}

// assignCompetitionRanks expects standings already sorted by total
func assignCompetitionRanks(standings []models.Standing) {
	for i := range standings {
		if i == 0 || standings[i].TotalScore > standings[i-1].TotalScore {
			standings[i].Rank = i + 1
			continue
		}
		standings[i].Rank = standings[i-1].Rank
	}
}

// IsComplete reports whether every participant has a record for every hole
func IsComplete(holes []models.Hole, scores []models.ScoreRecord, participants []models.Participant) bool {
	if len(participants) == 0 || len(holes) == 0 {
		return false
	}

	type key struct {
		participationID int64
		hole            int
	}
	have := make(map[key]struct{}, len(scores))
	for _, rec := range scores {
		have[key{rec.ParticipationID, rec.HoleNumber}] = struct{}{}
	}

	for _, p := range participants {
		for _, h := range holes {
			if _, ok := have[key{p.ParticipationID, h.HoleNumber}]; !ok {
				return false
			}
		}
	}
	return true
}
