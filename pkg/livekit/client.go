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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/livekit-examples/meet-gateway/pkg/auth"
)

const (
	// outbound credentials only need to outlive a single request
	requestTokenTTL = time.Minute

	defaultHTTPTimeout = 10 * time.Second

	egressService = "livekit.Egress"
	roomService   = "livekit.RoomService"
)

// RequestError carries a non-success response from the platform so callers
// can surface the upstream status and body.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client speaks the platform's Twirp-style HTTP API directly. The
// deployment target forbids native dependencies, so requests are signed
// with short-lived tokens minted here rather than by the server SDK.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewClient(url, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   toHTTPURL(url),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// toHTTPURL converts websocket urls, which is how LiveKit deployments are
// usually configured, into their http equivalents.
func toHTTPURL(url string) string {
	if strings.HasPrefix(url, "ws") {
		return "http" + strings.TrimPrefix(url, "ws")
	}
	return strings.TrimSuffix(url, "/")
}

// GetParticipant fetches a participant record using an admin credential
// scoped to the room.
func (c *Client) GetParticipant(ctx context.Context, room, identity string) (*ParticipantInfo, error) {
	token, err := c.adminToken(room)
	if err != nil {
		return nil, err
	}
	res := &ParticipantInfo{}
	if err := c.do(ctx, token, roomService, "GetParticipant",
		&RoomParticipantIdentity{Room: room, Identity: identity}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListEgress returns all known recording jobs for a room.
func (c *Client) ListEgress(ctx context.Context, roomName string) ([]*EgressInfo, error) {
	token, err := c.recordToken(roomName)
	if err != nil {
		return nil, err
	}
	res := &ListEgressResponse{}
	if err := c.do(ctx, token, egressService, "ListEgress",
		&ListEgressRequest{RoomName: roomName}, res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// StartRoomCompositeEgress starts a recording job capturing the whole room.
func (c *Client) StartRoomCompositeEgress(ctx context.Context, req *RoomCompositeEgressRequest) (*EgressInfo, error) {
	token, err := c.recordToken(req.RoomName)
	if err != nil {
		return nil, err
	}
	res := &EgressInfo{}
	if err := c.do(ctx, token, egressService, "StartRoomCompositeEgress", req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// StopEgress requests termination of a job and returns its final record.
func (c *Client) StopEgress(ctx context.Context, egressID string) (*EgressInfo, error) {
	token, err := c.recordToken("")
	if err != nil {
		return nil, err
	}
	res := &EgressInfo{}
	if err := c.do(ctx, token, egressService, "StopEgress",
		&StopEgressRequest{EgressID: egressID}, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) adminToken(room string) (string, error) {
	return auth.NewAccessToken(c.apiKey, c.apiSecret).
		AddGrant(&auth.VideoGrant{RoomAdmin: true, Room: room}).
		SetValidFor(requestTokenTTL).
		ToJWT()
}

func (c *Client) recordToken(room string) (string, error) {
	return auth.NewAccessToken(c.apiKey, c.apiSecret).
		AddGrant(&auth.VideoGrant{RoomRecord: true, Room: room}).
		SetValidFor(requestTokenTTL).
		ToJWT()
}

func (c *Client) do(ctx context.Context, token, service, method string, req, res interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "could not marshal request")
	}

	url := fmt.Sprintf("%s/twirp/%s/%s", c.baseURL, service, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "could not reach %s/%s", service, method)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return errors.Wrap(err, "could not read response")
	}

	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return &RequestError{StatusCode: httpRes.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, res); err != nil {
		return errors.Wrapf(err, "could not parse %s/%s response", service, method)
	}
	return nil
}
