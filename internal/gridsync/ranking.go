package gridsync

import (
	"fmt"
	"sort"
	"time"
)

// RankingLine is one row of the ranking table: a read-only projection of a
// participant's progress at the instant the table was rebuilt.
type RankingLine struct {
	Rank             int           `json:"rank"`
	ParticipantID    ParticipantID `json:"participant_id"`
	Name             string        `json:"name"`
	TotalDistance    float64       `json:"total_distance"`
	Lap              int           `json:"lap"`
	LastCheckpointAt float64       `json:"last_checkpoint_at"`
	BestLapTime      time.Duration `json:"best_lap_time"`
	Finished         bool          `json:"finished"`
	FinishTime       time.Duration `json:"finish_time"`
}

func (l RankingLine) String() string {
	return fmt.Sprintf("P%d %s (lap: %d, distance: %.1fm)", l.Rank, l.Name, l.Lap, l.TotalDistance)
}

// RankingTable is an ordered projection over the participant records. It is
// rebuilt, never patched, whenever any participant's distance changes
// materially, and is never independently mutated.
type RankingTable []RankingLine

// BuildRankingTable sorts all active (non-DNF) participants by total race
// distance descending. Ties break on the earlier last-checkpoint timestamp,
// so the racer who reached their current checkpoint first ranks higher, and
// any remaining tie breaks on participant ID so the order is deterministic
// regardless of input iteration order.
func BuildRankingTable(entryList EntryList) RankingTable {
	table := make(RankingTable, 0, len(entryList))

	for _, participant := range entryList {
		if !participant.IsActive() {
			continue
		}

		table = append(table, RankingLine{
			ParticipantID:    participant.ID,
			Name:             participant.Name,
			TotalDistance:    participant.TotalDistance,
			Lap:              participant.CurrentLap,
			LastCheckpointAt: participant.LastCheckpointAt,
			BestLapTime:      participant.BestLapTime,
			Finished:         participant.Finished,
			FinishTime:       participant.FinishTime,
		})
	}

	sort.SliceStable(table, func(i, j int) bool {
		lineI, lineJ := table[i], table[j]

		if lineI.TotalDistance != lineJ.TotalDistance {
			return lineI.TotalDistance > lineJ.TotalDistance
		}

		if lineI.LastCheckpointAt != lineJ.LastCheckpointAt {
			return lineI.LastCheckpointAt < lineJ.LastCheckpointAt
		}

		return lineI.ParticipantID < lineJ.ParticipantID
	})

	for i := range table {
		table[i].Rank = i + 1
	}

	return table
}

// RankChange records a participant whose numeric rank actually moved between
// two table rebuilds.
type RankChange struct {
	ParticipantID ParticipantID `json:"participant_id"`
	Name          string        `json:"name"`
	OldRank       int           `json:"old_rank"` // zero for new entries
	NewRank       int           `json:"new_rank"`
}

// DiffRanking compares two tables and yields a change record for every
// participant whose rank moved. Participants absent from the previous table
// report an OldRank of zero.
func DiffRanking(previous, current RankingTable) []RankChange {
	previousRanks := make(map[ParticipantID]int, len(previous))

	for _, line := range previous {
		previousRanks[line.ParticipantID] = line.Rank
	}

	var changes []RankChange

	for _, line := range current {
		oldRank, existed := previousRanks[line.ParticipantID]

		if existed && oldRank == line.Rank {
			continue
		}

		changes = append(changes, RankChange{
			ParticipantID: line.ParticipantID,
			Name:          line.Name,
			OldRank:       oldRank,
			NewRank:       line.Rank,
		})
	}

	return changes
}
