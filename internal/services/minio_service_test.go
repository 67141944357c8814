package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"haventory/internal/config"
	"haventory/internal/models"
	"haventory/internal/repositories"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MinioServiceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	mu       sync.Mutex
	uploaded map[string][]byte
	service  *minioClient
}

func (suite *MinioServiceTestSuite) SetupTest() {
	suite.uploaded = map[string][]byte{}
	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			suite.mu.Lock()
			suite.uploaded[r.URL.Path] = body
			suite.mu.Unlock()
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		}
		w.WriteHeader(http.StatusOK)
	}))

	svc, err := NewMinioService(config.MinioConfig{
		Endpoint:  strings.TrimPrefix(suite.server.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "haventory-backups",
	}, "snapshots/", "us-east-1")
	require.NoError(suite.T(), err)
	suite.service = svc.(*minioClient)
	suite.service.now = func() time.Time { return time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC) }
}

func (suite *MinioServiceTestSuite) TearDownTest() {
	suite.server.Close()
}

func TestMinioServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MinioServiceTestSuite))
}

func (suite *MinioServiceTestSuite) TestUploadSnapshot() {
	repo := repositories.NewInventoryRepo()
	_, err := repo.CreateItem(models.ItemCreate{Name: "Drill"})
	require.NoError(suite.T(), err)

	key, err := suite.service.UploadSnapshot(context.Background(), repo.ExportState())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "snapshots/haventory-20240301T083000.000000000Z.json", key)

	suite.mu.Lock()
	body, ok := suite.uploaded["/haventory-backups/"+key]
	suite.mu.Unlock()
	require.True(suite.T(), ok, "object uploaded under the bucket path")

	assert.Contains(suite.T(), string(body), `"name":"Drill"`)
}

func (suite *MinioServiceTestSuite) TestPresignedURL() {
	url, err := suite.service.PresignedURL(context.Background(), "snapshots/a.json", 15*time.Minute)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), url, "/haventory-backups/snapshots/a.json")
	assert.Contains(suite.T(), url, "X-Amz-Expires=900")
}

func TestSnapshotObjectKeysSortChronologically(t *testing.T) {
	earlier := snapshotObjectKey("p/", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	later := snapshotObjectKey("p/", time.Date(2024, 1, 2, 3, 4, 5, 1, time.UTC))
	assert.Less(t, earlier, later)
	assert.True(t, strings.HasPrefix(earlier, "p/haventory-"))
}

func TestLatestSnapshotObject(t *testing.T) {
	_, ok := latestSnapshotObject(nil)
	assert.False(t, ok)

	latest, ok := latestSnapshotObject([]minio.ObjectInfo{
		{Key: "snapshots/haventory-20240101T000000.000000000Z.json"},
		{Key: "snapshots/haventory-20240301T000000.000000000Z.json", Size: 42},
		{Key: "snapshots/notes.txt"},
		{Key: "snapshots/haventory-20240201T000000.000000000Z.json"},
	})
	require.True(t, ok)
	assert.Equal(t, "snapshots/haventory-20240301T000000.000000000Z.json", latest.Key)
	assert.Equal(t, int64(42), latest.Size)
}
