package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livekit-examples/meet-gateway/pkg/config"
)

func TestNewS3Client(t *testing.T) {
	t.Run("requires full storage config", func(t *testing.T) {
		_, err := NewS3Client(config.S3Config{AccessKey: "ak"})
		assert.Error(t, err)
	})

	t.Run("builds a client for compatible stores", func(t *testing.T) {
		c, err := NewS3Client(config.S3Config{
			AccessKey:      "ak",
			Secret:         "sk",
			Region:         "us-east-1",
			Bucket:         "recordings",
			Endpoint:       "http://localhost:9000",
			ForcePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "recordings", c.bucket)
	})
}

func TestListRecordings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recordings", r.URL.Path)
		assert.Equal(t, "recordings/myroom/", r.URL.Query().Get("prefix"))

		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
	<Name>recordings</Name>
	<Prefix>recordings/myroom/</Prefix>
	<KeyCount>2</KeyCount>
	<IsTruncated>false</IsTruncated>
	<Contents>
		<Key>recordings/myroom/2024-05-17T10-30-45.123Z.mp4</Key>
		<Size>1024</Size>
		<LastModified>2024-05-17T11:00:00.000Z</LastModified>
	</Contents>
	<Contents>
		<Key>recordings/myroom/2024-05-18T09-00-00.000Z.mp4</Key>
		<Size>2048</Size>
		<LastModified>2024-05-18T09:30:00.000Z</LastModified>
	</Contents>
</ListBucketResult>`)
	}))
	defer ts.Close()

	c, err := NewS3Client(config.S3Config{
		AccessKey:      "ak",
		Secret:         "sk",
		Region:         "us-east-1",
		Bucket:         "recordings",
		Endpoint:       ts.URL,
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	recordings, err := c.ListRecordings(context.Background(), "myroom")
	require.NoError(t, err)
	require.Len(t, recordings, 2)
	assert.Equal(t, "recordings/myroom/2024-05-17T10-30-45.123Z.mp4", recordings[0].Name)
	assert.EqualValues(t, 1024, recordings[0].Size)
	assert.Equal(t, 2024, recordings[1].LastModified.Year())
}
