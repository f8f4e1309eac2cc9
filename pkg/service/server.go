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
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/urfave/negroni/v3"

	"github.com/livekit-examples/meet-gateway/pkg/config"
	"github.com/livekit-examples/meet-gateway/pkg/logger"
)

type GatewayServer struct {
	conf       *config.Config
	httpServer *http.Server
	running    bool
	doneChan   chan struct{}
}

func NewGatewayServer(conf *config.Config, recordingService *RecordingService) *GatewayServer {
	middlewares := []negroni.Handler{
		// always the first
		negroni.NewRecovery(),
		cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedHeaders: []string{"*"},
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/start", recordingService.StartRecording)
	mux.HandleFunc("/stop", recordingService.StopRecording)
	mux.HandleFunc("/status", recordingService.RecordingStatus)
	mux.HandleFunc("/recordings", recordingService.ListRecordings)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "OK")
	})

	return &GatewayServer{
		conf: conf,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.Port),
			Handler: configureMiddlewares(mux, middlewares...),
		},
	}
}

func (s *GatewayServer) IsRunning() bool {
	return s.running
}

func (s *GatewayServer) Start() error {
	if s.running {
		return errors.New("already running")
	}
	s.doneChan = make(chan struct{})

	// ensure we could listen
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	go func() {
		logger.Infow("starting meet gateway", "address", s.httpServer.Addr)
		_ = s.httpServer.Serve(ln)
	}()

	s.running = true
	<-s.doneChan

	// wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	_ = s.httpServer.Shutdown(ctx)

	return nil
}

func (s *GatewayServer) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.doneChan)
}

func configureMiddlewares(handler http.Handler, middlewares ...negroni.Handler) *negroni.Negroni {
	n := negroni.New()
	for _, m := range middlewares {
		n.Use(m)
	}
	n.UseHandler(handler)
	return n
}
