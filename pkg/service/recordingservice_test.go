package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livekit-examples/meet-gateway/pkg/config"
	"github.com/livekit-examples/meet-gateway/pkg/livekit"
	"github.com/livekit-examples/meet-gateway/pkg/recording"
	"github.com/livekit-examples/meet-gateway/pkg/storage"
)

type fakePlatform struct {
	metadata       string
	participantErr error
	egresses       []*livekit.EgressInfo

	started int
	stopped int
}

func (f *fakePlatform) GetParticipant(_ context.Context, _, _ string) (*livekit.ParticipantInfo, error) {
	if f.participantErr != nil {
		return nil, f.participantErr
	}
	return &livekit.ParticipantInfo{Identity: "user", Metadata: f.metadata}, nil
}

func (f *fakePlatform) ListEgress(_ context.Context, _ string) ([]*livekit.EgressInfo, error) {
	return f.egresses, nil
}

func (f *fakePlatform) StartRoomCompositeEgress(_ context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	f.started++
	return &livekit.EgressInfo{EgressID: "EG_new", RoomName: req.RoomName, Status: livekit.EgressStarting}, nil
}

func (f *fakePlatform) StopEgress(_ context.Context, egressID string) (*livekit.EgressInfo, error) {
	f.stopped++
	return &livekit.EgressInfo{
		EgressID: egressID,
		Status:   livekit.EgressComplete,
		FileResults: []*livekit.FileInfo{
			{Filename: "recordings/myroom/out.mp4", Size: 2048},
		},
	}, nil
}

type fakeLister struct {
	recordings []*storage.RecordingObject
	err        error
}

func (f *fakeLister) ListRecordings(_ context.Context, _ string) ([]*storage.RecordingObject, error) {
	return f.recordings, f.err
}

func testConf() *config.Config {
	return &config.Config{
		LiveKit: config.LiveKitConfig{
			URL:       "wss://example.livekit.cloud",
			APIKey:    "APIkey",
			APISecret: "secret",
		},
		S3: config.S3Config{
			AccessKey: "ak",
			Secret:    "sk",
			Region:    "us-east-1",
			Bucket:    "recordings",
		},
	}
}

func newService(conf *config.Config, platform *fakePlatform, lister RecordingLister) *RecordingService {
	return NewRecordingService(conf, recording.NewController(conf.S3, platform), lister)
}

func get(handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStartRecording(t *testing.T) {
	t.Run("missing roomName", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{}, nil)
		w := get(s.StartRecording, "/start?identity=user")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Missing roomName parameter", w.Body.String())
	})

	t.Run("missing identity", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{}, nil)
		w := get(s.StartRecording, "/start?roomName=myroom")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Missing identity parameter", w.Body.String())
	})

	t.Run("platform not configured", func(t *testing.T) {
		conf := testConf()
		conf.LiveKit.APISecret = ""
		s := newService(conf, &fakePlatform{}, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("storage not configured", func(t *testing.T) {
		conf := testConf()
		conf.S3.Bucket = ""
		s := newService(conf, &fakePlatform{metadata: `{"canRecord":true}`}, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("permission denied regardless of configuration", func(t *testing.T) {
		platform := &fakePlatform{metadata: `{"role":"viewer"}`}
		s := newService(testConf(), platform, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 0, platform.started)
	})

	t.Run("lookup failure denies", func(t *testing.T) {
		platform := &fakePlatform{participantErr: errors.New("unreachable")}
		s := newService(testConf(), platform, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("starts and returns namespaced filepath", func(t *testing.T) {
		platform := &fakePlatform{metadata: `{"canRecord":true}`}
		s := newService(testConf(), platform, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		require.Equal(t, http.StatusOK, w.Code)

		res := map[string]string{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "Recording started", res["message"])
		assert.Regexp(t, `^recordings/myroom/.+\.mp4$`, res["filepath"])
		assert.Equal(t, 1, platform.started)
	})

	t.Run("conflict when already recording", func(t *testing.T) {
		platform := &fakePlatform{
			metadata: `{"canRecord":true}`,
			egresses: []*livekit.EgressInfo{{EgressID: "EG_1", Status: livekit.EgressActive}},
		}
		s := newService(testConf(), platform, nil)
		w := get(s.StartRecording, "/start?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, platform.started)
	})
}

func TestStopRecording(t *testing.T) {
	t.Run("nothing to stop", func(t *testing.T) {
		platform := &fakePlatform{metadata: `{"canRecord":true}`}
		s := newService(testConf(), platform, nil)
		w := get(s.StopRecording, "/stop?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 0, platform.stopped)
	})

	t.Run("stops active jobs and reports files", func(t *testing.T) {
		platform := &fakePlatform{
			metadata: `{"canRecord":true}`,
			egresses: []*livekit.EgressInfo{
				{EgressID: "EG_1", Status: livekit.EgressActive},
				{EgressID: "EG_2", Status: livekit.EgressComplete},
			},
		}
		s := newService(testConf(), platform, nil)
		w := get(s.StopRecording, "/stop?roomName=myroom&identity=user")
		require.Equal(t, http.StatusOK, w.Code)

		res := stopResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "Recording stopped", res.Message)
		assert.Equal(t, 1, res.Stopped)
		require.Len(t, res.Files, 1)
		assert.Equal(t, "recordings/myroom/out.mp4", res.Files[0].Filename)
	})

	t.Run("missing roomName", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{}, nil)
		w := get(s.StopRecording, "/stop?identity=user")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Missing roomName parameter", w.Body.String())
	})
}

func TestRecordingStatus(t *testing.T) {
	t.Run("missing roomName", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{}, nil)
		w := get(s.RecordingStatus, "/status")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("reports authoritative state when no override held", func(t *testing.T) {
		platform := &fakePlatform{
			egresses: []*livekit.EgressInfo{{EgressID: "EG_1", Status: livekit.EgressActive}},
		}
		s := newService(testConf(), platform, nil)
		w := get(s.RecordingStatus, "/status?roomName=myroom")
		require.Equal(t, http.StatusOK, w.Code)

		res := statusResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Recording)
	})

	t.Run("optimistic stop holds until authoritative state catches up", func(t *testing.T) {
		platform := &fakePlatform{
			metadata: `{"canRecord":true}`,
			egresses: []*livekit.EgressInfo{{EgressID: "EG_1", Status: livekit.EgressActive}},
		}
		s := newService(testConf(), platform, nil)

		// successful stop sets the optimistic override
		w := get(s.StopRecording, "/stop?roomName=myroom&identity=user")
		require.Equal(t, http.StatusOK, w.Code)

		// the platform still reports the job as active; display stays
		// at the optimistic value
		w = get(s.RecordingStatus, "/status?roomName=myroom")
		require.Equal(t, http.StatusOK, w.Code)
		res := statusResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Recording)
		assert.Equal(t, recording.OverrideStopped, s.tracker("myroom").CurrentOverride())

		// once the platform agrees, the override clears
		platform.egresses = nil
		w = get(s.RecordingStatus, "/status?roomName=myroom")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Recording)
		assert.Equal(t, recording.OverrideUnset, s.tracker("myroom").CurrentOverride())
	})
}

func TestListRecordings(t *testing.T) {
	t.Run("storage not configured", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{metadata: `{"canRecord":true}`}, nil)
		w := get(s.ListRecordings, "/recordings?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("requires permission", func(t *testing.T) {
		s := newService(testConf(), &fakePlatform{}, &fakeLister{})
		w := get(s.ListRecordings, "/recordings?roomName=myroom&identity=user")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("lists recordings for room", func(t *testing.T) {
		lister := &fakeLister{
			recordings: []*storage.RecordingObject{
				{Name: "recordings/myroom/a.mp4", Size: 10},
				{Name: "recordings/myroom/b.mp4", Size: 20},
			},
		}
		s := newService(testConf(), &fakePlatform{metadata: `{"canRecord":true}`}, lister)
		w := get(s.ListRecordings, "/recordings?roomName=myroom&identity=user")
		require.Equal(t, http.StatusOK, w.Code)

		res := recordingsResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Recordings, 2)
		assert.Equal(t, "recordings/myroom/b.mp4", res.Recordings[1].Name)
	})
}
