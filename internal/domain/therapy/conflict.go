package therapy

import (
	"errors"
	"strings"
)

// ErrTimeSlotTaken is the single user-facing scheduling collision error.
// Every collision, wherever it is detected, is normalized to this value.
var ErrTimeSlotTaken = errors.New("Time slot taken")

// collisionHints are the substrings that mark an error as a scheduling
// collision. One list, used everywhere.
var collisionHints = []string{
	"time slot",
	"slot taken",
	"already booked",
	"overlapping session",
	"schedule conflict",
}

// IsTimeConflict reports whether err represents a scheduling collision,
// either the sentinel itself or a message carrying a collision hint.
func IsTimeConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeSlotTaken) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range collisionHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// NormalizeConflict collapses any collision-shaped error to
// ErrTimeSlotTaken and passes everything else through unchanged.
func NormalizeConflict(err error) error {
	if IsTimeConflict(err) {
		return ErrTimeSlotTaken
	}
	return err
}
