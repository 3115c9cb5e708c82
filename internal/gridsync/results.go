package gridsync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const CurrentResultsVersion = 1

type RaceResults struct {
	Version     int       `json:"Version"`
	RaceID      uuid.UUID `json:"RaceId"`
	TrackName   string    `json:"TrackName"`
	TrackLength float64   `json:"TrackLength"`
	Laps        int       `json:"Laps"`
	Date        time.Time `json:"Date"`
	SessionFile string    `json:"SessionFile"`

	Result []*ParticipantRaceResult `json:"Result"`
}

type ParticipantRaceResult struct {
	ParticipantID ParticipantID `json:"ParticipantId"`
	GUID          uuid.UUID     `json:"Guid"`
	Name          string        `json:"Name"`
	Rank          int           `json:"Rank"`
	LapCount      int           `json:"LapCount"`
	TotalDistance float64       `json:"TotalDistance"`
	BestLap       int           `json:"BestLap"`   // milliseconds, 0 when no lap completed
	TotalTime     int           `json:"TotalTime"` // milliseconds, 0 for DNF
	Finished      bool          `json:"Finished"`
	DNF           bool          `json:"DNF"`
}

// GenerateResults freezes the final standings into a results document. DNF
// participants are appended after the ranked finishers, unranked.
func (ss *ServerState) GenerateResults() *RaceResults {
	resultDate := time.Now()

	results := &RaceResults{
		Version:     CurrentResultsVersion,
		RaceID:      uuid.New(),
		TrackName:   ss.authority.config.TrackName,
		TrackLength: ss.authority.config.TrackLength,
		Laps:        ss.authority.config.Laps,
		Date:        resultDate,
		SessionFile: fmt.Sprintf("%d_%d_%d_%d_%d_race.json", resultDate.Year(), resultDate.Month(), resultDate.Day(), resultDate.Hour(), resultDate.Minute()),
	}

	entryList := ss.authority.EntryList()

	for _, line := range ss.authority.Ranking() {
		participant, err := entryList.GetByID(line.ParticipantID)

		if err != nil {
			ss.logger.WithError(err).Errorf("Ranked participant: %d missing from entry list", line.ParticipantID)
			continue
		}

		results.Result = append(results.Result, &ParticipantRaceResult{
			ParticipantID: participant.ID,
			GUID:          participant.GUID,
			Name:          participant.Name,
			Rank:          line.Rank,
			LapCount:      participant.LapCount,
			TotalDistance: participant.TotalDistance,
			BestLap:       bestLapMillis(participant),
			TotalTime:     int(participant.FinishTime.Milliseconds()),
			Finished:      participant.Finished,
		})
	}

	for _, participant := range entryList {
		if !participant.DNF {
			continue
		}

		results.Result = append(results.Result, &ParticipantRaceResult{
			ParticipantID: participant.ID,
			GUID:          participant.GUID,
			Name:          participant.Name,
			LapCount:      participant.LapCount,
			TotalDistance: participant.TotalDistance,
			BestLap:       bestLapMillis(participant),
			DNF:           true,
		})
	}

	return results
}

func bestLapMillis(participant *Participant) int {
	if participant.BestLapTime == maximumLapTime {
		return 0
	}

	return int(participant.BestLapTime.Milliseconds())
}

// saveResults writes the results document to the disk.
func saveResults(directory string, results *RaceResults, logger Logger) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return err
	}

	path := filepath.Join(directory, results.SessionFile)

	logger.Infof("Saving race results to: %s", path)

	file, err := os.Create(path)

	if err != nil {
		return err
	}

	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "\t")

	return encoder.Encode(results)
}
