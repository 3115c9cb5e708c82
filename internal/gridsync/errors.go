package gridsync

import "errors"

var (
	ErrParticipantNotFound     = errors.New("gridsync: participant not found")
	ErrInvalidPhaseTransition  = errors.New("gridsync: invalid race phase transition")
	ErrCheckpointRegression    = errors.New("gridsync: checkpoint progress regression")
	ErrNotAcceptingCheckpoints = errors.New("gridsync: race is not accepting checkpoint events")
	ErrEntryListFull           = errors.New("gridsync: entry list is full")
	ErrResultsNotFound         = errors.New("gridsync: race results not found")
)

func errorGroup(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
