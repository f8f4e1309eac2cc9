// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/livekit-examples/meet-gateway/pkg/config"
	"github.com/livekit-examples/meet-gateway/pkg/livekit"
	"github.com/livekit-examples/meet-gateway/pkg/recording"
	"github.com/livekit-examples/meet-gateway/pkg/storage"
)

// RecordingLister reads back the recordings egress wrote to the bucket.
type RecordingLister interface {
	ListRecordings(ctx context.Context, room string) ([]*storage.RecordingObject, error)
}

// RecordingService exposes the start/stop/status endpoints the front end
// calls. All state it holds is per-room reconciliation trackers; recording
// jobs themselves live on the platform.
type RecordingService struct {
	conf       *config.Config
	controller *recording.Controller
	lister     RecordingLister

	mu       sync.Mutex
	trackers map[string]*recording.Tracker
}

func NewRecordingService(conf *config.Config, controller *recording.Controller, lister RecordingLister) *RecordingService {
	return &RecordingService{
		conf:       conf,
		controller: controller,
		lister:     lister,
		trackers:   make(map[string]*recording.Tracker),
	}
}

func (s *RecordingService) tracker(room string) *recording.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[room]
	if !ok {
		t = recording.NewTracker()
		s.trackers[room] = t
	}
	return t
}

type startResponse struct {
	Message  string `json:"message"`
	Filepath string `json:"filepath"`
}

type stopResponse struct {
	Message string              `json:"message"`
	Stopped int                 `json:"stopped"`
	Files   []*livekit.FileInfo `json:"files"`
}

type statusResponse struct {
	Recording bool `json:"recording"`
}

type recordingsResponse struct {
	Recordings []*storage.RecordingObject `json:"recordings"`
}

// StartRecording handles GET /start?roomName=&identity=
func (s *RecordingService) StartRecording(w http.ResponseWriter, r *http.Request) {
	roomName, identity, ok := s.requireParams(w, r)
	if !ok {
		return
	}
	if !s.conf.LiveKit.HasLiveKit() {
		handleError(w, r, http.StatusInternalServerError, ErrLiveKitNotConfigured)
		return
	}
	if !s.conf.S3.HasStorage() {
		handleError(w, r, http.StatusInternalServerError, ErrStorageNotConfigured)
		return
	}
	if !s.controller.CheckRecordPermission(r.Context(), roomName, identity) {
		handleError(w, r, http.StatusForbidden, ErrPermissionDenied, "room", roomName, "identity", identity)
		return
	}

	tracker := s.tracker(roomName)
	if !tracker.TryBegin() {
		handleError(w, r, http.StatusConflict, ErrRequestInFlight, "room", roomName)
		return
	}
	defer tracker.End()

	_, filepath, err := s.controller.Start(r.Context(), roomName)
	if err == recording.ErrAlreadyRecording {
		handleError(w, r, http.StatusConflict, err, "room", roomName)
		return
	}
	if err != nil {
		handleError(w, r, http.StatusInternalServerError, err, "room", roomName)
		return
	}

	tracker.RequestSucceeded(true)
	writeJSON(w, &startResponse{
		Message:  "Recording started",
		Filepath: filepath,
	})
}

// StopRecording handles GET /stop?roomName=&identity=
func (s *RecordingService) StopRecording(w http.ResponseWriter, r *http.Request) {
	roomName, identity, ok := s.requireParams(w, r)
	if !ok {
		return
	}
	if !s.conf.LiveKit.HasLiveKit() {
		handleError(w, r, http.StatusInternalServerError, ErrLiveKitNotConfigured)
		return
	}
	if !s.controller.CheckRecordPermission(r.Context(), roomName, identity) {
		handleError(w, r, http.StatusForbidden, ErrPermissionDenied, "room", roomName, "identity", identity)
		return
	}

	tracker := s.tracker(roomName)
	if !tracker.TryBegin() {
		handleError(w, r, http.StatusConflict, ErrRequestInFlight, "room", roomName)
		return
	}
	defer tracker.End()

	stopped, err := s.controller.StopAll(r.Context(), roomName)
	if err == recording.ErrNotRecording {
		handleError(w, r, http.StatusNotFound, err, "room", roomName)
		return
	}
	if err != nil {
		handleError(w, r, http.StatusInternalServerError, err, "room", roomName)
		return
	}

	tracker.RequestSucceeded(false)
	files := make([]*livekit.FileInfo, 0)
	for _, info := range stopped {
		files = append(files, info.FileResults...)
	}
	writeJSON(w, &stopResponse{
		Message: "Recording stopped",
		Stopped: len(stopped),
		Files:   files,
	})
}

// RecordingStatus handles GET /status?roomName=, reporting the reconciled
// view: an optimistic override while one is held, authoritative otherwise.
func (s *RecordingService) RecordingStatus(w http.ResponseWriter, r *http.Request) {
	roomName := r.URL.Query().Get("roomName")
	if roomName == "" {
		handleError(w, r, http.StatusForbidden, ErrMissingRoomName)
		return
	}
	if !s.conf.LiveKit.HasLiveKit() {
		handleError(w, r, http.StatusInternalServerError, ErrLiveKitNotConfigured)
		return
	}

	active, err := s.controller.ListActive(r.Context(), roomName)
	if err != nil {
		handleError(w, r, http.StatusInternalServerError, err, "room", roomName)
		return
	}

	tracker := s.tracker(roomName)
	authoritative := len(active) > 0
	tracker.Observe(authoritative)
	writeJSON(w, &statusResponse{
		Recording: tracker.Display(authoritative),
	})
}

// ListRecordings handles GET /recordings?roomName=&identity=, returning
// the files previously produced for the room.
func (s *RecordingService) ListRecordings(w http.ResponseWriter, r *http.Request) {
	roomName, identity, ok := s.requireParams(w, r)
	if !ok {
		return
	}
	if s.lister == nil {
		handleError(w, r, http.StatusInternalServerError, ErrStorageNotConfigured)
		return
	}
	if !s.controller.CheckRecordPermission(r.Context(), roomName, identity) {
		handleError(w, r, http.StatusForbidden, ErrPermissionDenied, "room", roomName, "identity", identity)
		return
	}

	recordings, err := s.lister.ListRecordings(r.Context(), roomName)
	if err != nil {
		handleError(w, r, http.StatusInternalServerError, err, "room", roomName)
		return
	}
	writeJSON(w, &recordingsResponse{Recordings: recordings})
}

func (s *RecordingService) requireParams(w http.ResponseWriter, r *http.Request) (roomName, identity string, ok bool) {
	roomName = r.URL.Query().Get("roomName")
	identity = r.URL.Query().Get("identity")
	if roomName == "" {
		handleError(w, r, http.StatusForbidden, ErrMissingRoomName)
		return "", "", false
	}
	if identity == "" {
		handleError(w, r, http.StatusForbidden, ErrMissingIdentity)
		return "", "", false
	}
	return roomName, identity, true
}
