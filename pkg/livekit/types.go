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

package livekit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EgressStatus is the canonical recording job status. The platform reports
// statuses as either protobuf enum names or their numeric values depending
// on the serializer; both forms normalize to this type at the wire boundary.
type EgressStatus int32

const (
	EgressStarting EgressStatus = iota
	EgressActive
	EgressEnding
	EgressComplete
	EgressFailed
	EgressAborted
	EgressLimitReached
)

var egressStatusNames = map[EgressStatus]string{
	EgressStarting:     "EGRESS_STARTING",
	EgressActive:       "EGRESS_ACTIVE",
	EgressEnding:       "EGRESS_ENDING",
	EgressComplete:     "EGRESS_COMPLETE",
	EgressFailed:       "EGRESS_FAILED",
	EgressAborted:      "EGRESS_ABORTED",
	EgressLimitReached: "EGRESS_LIMIT_REACHED",
}

func (s EgressStatus) String() string {
	if name, ok := egressStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EGRESS_STATUS(%d)", int32(s))
}

// IsActive reports whether a job in this status is still producing output.
func (s EgressStatus) IsActive() bool {
	return s == EgressStarting || s == EgressActive
}

func (s EgressStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *EgressStatus) UnmarshalJSON(data []byte) error {
	var num int32
	if err := json.Unmarshal(data, &num); err == nil {
		*s = EgressStatus(num)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("invalid egress status: %s", string(data))
	}
	name = strings.ToUpper(name)
	if !strings.HasPrefix(name, "EGRESS_") {
		name = "EGRESS_" + name
	}
	for status, statusName := range egressStatusNames {
		if name == statusName {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown egress status: %s", name)
}

// EgressInfo describes a recording job owned by the platform.
type EgressInfo struct {
	EgressID    string       `json:"egressId,omitempty"`
	RoomID      string       `json:"roomId,omitempty"`
	RoomName    string       `json:"roomName,omitempty"`
	Status      EgressStatus `json:"status"`
	StartedAt   int64        `json:"startedAt,omitempty,string"`
	EndedAt     int64        `json:"endedAt,omitempty,string"`
	Error       string       `json:"error,omitempty"`
	FileResults []*FileInfo  `json:"fileResults,omitempty"`
}

type FileInfo struct {
	Filename string `json:"filename,omitempty"`
	Duration int64  `json:"duration,omitempty,string"`
	Size     int64  `json:"size,omitempty,string"`
	Location string `json:"location,omitempty"`
}

type ParticipantInfo struct {
	Sid      string `json:"sid,omitempty"`
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

type RoomParticipantIdentity struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

type ListEgressRequest struct {
	RoomName string `json:"roomName,omitempty"`
}

type ListEgressResponse struct {
	Items []*EgressInfo `json:"items,omitempty"`
}

type RoomCompositeEgressRequest struct {
	RoomName    string               `json:"roomName"`
	Layout      string               `json:"layout,omitempty"`
	AudioOnly   bool                 `json:"audioOnly,omitempty"`
	FileOutputs []*EncodedFileOutput `json:"fileOutputs,omitempty"`
}

type EncodedFileOutput struct {
	FileType string    `json:"fileType,omitempty"`
	Filepath string    `json:"filepath,omitempty"`
	S3       *S3Upload `json:"s3,omitempty"`
}

type S3Upload struct {
	AccessKey      string `json:"accessKey,omitempty"`
	Secret         string `json:"secret,omitempty"`
	Region         string `json:"region,omitempty"`
	Endpoint       string `json:"endpoint,omitempty"`
	Bucket         string `json:"bucket,omitempty"`
	ForcePathStyle bool   `json:"forcePathStyle,omitempty"`
}

type StopEgressRequest struct {
	EgressID string `json:"egressId"`
}
