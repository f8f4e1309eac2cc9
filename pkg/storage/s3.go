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

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/livekit-examples/meet-gateway/pkg/config"
)

// RecordingObject describes a finished recording file in the bucket.
type RecordingObject struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// S3Client reads the bucket that egress jobs write into. The same
// credentials are handed to the platform when a job starts.
type S3Client struct {
	bucket   string
	s3Client *s3.S3
}

func NewS3Client(conf config.S3Config) (*S3Client, error) {
	if !conf.HasStorage() {
		return nil, errors.New("object storage is not configured")
	}

	awsConf := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(conf.AccessKey, conf.Secret, ""),
		Region:           aws.String(conf.Region),
		S3ForcePathStyle: aws.Bool(conf.ForcePathStyle),
	}
	if conf.Endpoint != "" {
		awsConf.Endpoint = aws.String(conf.Endpoint)
	}

	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create storage session")
	}

	return &S3Client{
		bucket:   conf.Bucket,
		s3Client: s3.New(sess),
	}, nil
}

// ListRecordings returns the recordings produced for a room, newest last.
func (c *S3Client) ListRecordings(ctx context.Context, room string) ([]*RecordingObject, error) {
	prefix := fmt.Sprintf("recordings/%s/", room)

	recordings := make([]*RecordingObject, 0)
	err := c.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			recordings = append(recordings, &RecordingObject{
				Name:         aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not list recordings")
	}
	return recordings, nil
}
