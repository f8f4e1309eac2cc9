package recording

import (
	"errors"
)

var (
	ErrAlreadyRecording = errors.New("room is already being recorded")
	ErrNotRecording     = errors.New("no active recording for room")
)
