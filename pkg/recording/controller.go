// Copyright 2024 LiveKit, Inc.
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

package recording

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/livekit-examples/meet-gateway/pkg/config"
	"github.com/livekit-examples/meet-gateway/pkg/livekit"
	"github.com/livekit-examples/meet-gateway/pkg/logger"
)

// EgressClient is the subset of the platform API the controller drives.
type EgressClient interface {
	GetParticipant(ctx context.Context, room, identity string) (*livekit.ParticipantInfo, error)
	ListEgress(ctx context.Context, roomName string) ([]*livekit.EgressInfo, error)
	StartRoomCompositeEgress(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error)
	StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error)
}

// participantMetadata is the structured form of the opaque metadata string
// the front end stores on participants.
type participantMetadata struct {
	CanRecord bool `json:"canRecord"`
}

type Controller struct {
	s3     config.S3Config
	client EgressClient
}

func NewController(s3 config.S3Config, client EgressClient) *Controller {
	return &Controller{
		s3:     s3,
		client: client,
	}
}

// CheckRecordPermission reports whether the identity may record the room.
// Lookup failures and unparsable metadata deny rather than error, so a
// broken metadata blob can never grant or crash anything.
func (c *Controller) CheckRecordPermission(ctx context.Context, room, identity string) bool {
	p, err := c.client.GetParticipant(ctx, room, identity)
	if err != nil {
		logger.Debugw("participant lookup failed, denying recording", "room", room, "identity", identity, "error", err)
		return false
	}
	if p.Metadata == "" {
		return false
	}
	md := participantMetadata{}
	if err := json.Unmarshal([]byte(p.Metadata), &md); err != nil {
		return false
	}
	return md.CanRecord
}

// ListActive returns the room's recording jobs that are still running.
func (c *Controller) ListActive(ctx context.Context, room string) ([]*livekit.EgressInfo, error) {
	items, err := c.client.ListEgress(ctx, room)
	if err != nil {
		return nil, err
	}
	active := make([]*livekit.EgressInfo, 0, len(items))
	for _, item := range items {
		if item.Status.IsActive() {
			active = append(active, item)
		}
	}
	return active, nil
}

// Start begins a room composite recording writing to object storage.
// Returns ErrAlreadyRecording if the room already has an active job.
func (c *Controller) Start(ctx context.Context, room string) (*livekit.EgressInfo, string, error) {
	active, err := c.ListActive(ctx, room)
	if err != nil {
		return nil, "", err
	}
	if len(active) > 0 {
		return nil, "", ErrAlreadyRecording
	}

	filepath := recordingPath(room, time.Now())
	info, err := c.client.StartRoomCompositeEgress(ctx, &livekit.RoomCompositeEgressRequest{
		RoomName: room,
		FileOutputs: []*livekit.EncodedFileOutput{
			{
				FileType: "MP4",
				Filepath: filepath,
				S3: &livekit.S3Upload{
					AccessKey:      c.s3.AccessKey,
					Secret:         c.s3.Secret,
					Region:         c.s3.Region,
					Bucket:         c.s3.Bucket,
					Endpoint:       c.s3.Endpoint,
					ForcePathStyle: c.s3.ForcePathStyle,
				},
			},
		},
	})
	if err != nil {
		return nil, "", err
	}

	logger.Infow("recording started", "room", room, "egressID", info.EgressID, "filepath", filepath)
	return info, filepath, nil
}

// StopAll terminates every active job for the room. Returns
// ErrNotRecording when there is nothing to stop.
func (c *Controller) StopAll(ctx context.Context, room string) ([]*livekit.EgressInfo, error) {
	active, err := c.ListActive(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNotRecording
	}

	stopped := make([]*livekit.EgressInfo, 0, len(active))
	for _, item := range active {
		info, err := c.client.StopEgress(ctx, item.EgressID)
		if err != nil {
			return nil, err
		}
		stopped = append(stopped, info)
		logger.Infow("recording stopped", "room", room, "egressID", item.EgressID)
	}
	return stopped, nil
}

// recordingPath namespaces output by room and a millisecond timestamp so
// consecutive recordings of the same room never overwrite each other.
func recordingPath(room string, now time.Time) string {
	ts := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	return fmt.Sprintf("recordings/%s/%s.mp4", room, ts)
}
