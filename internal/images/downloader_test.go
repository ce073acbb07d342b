package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/agroland/agroland-sync/internal/httpclient"
	"github.com/agroland/agroland-sync/internal/httpclient/mocks"
)

func TestHTTPDownloader_Download(t *testing.T) {
	t.Parallel()

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(payload)
		case "/empty.jpg":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	downloader := NewHTTPDownloader(httpclient.NewDefaultClient(5*time.Second), 0)

	tests := []struct {
		name       string
		url        string
		want       []byte
		wantStatus int
		wantErr    bool
	}{
		{name: "binary body returned as is", url: server.URL + "/ok.jpg", want: payload},
		{name: "missing image", url: server.URL + "/missing.jpg", wantStatus: http.StatusNotFound, wantErr: true},
		{name: "empty body", url: server.URL + "/empty.jpg", wantErr: true},
		{name: "empty url", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := downloader.Download(context.Background(), tt.url)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, data)
				return
			}

			require.Error(t, err)
			assert.Nil(t, data)
			var downloadErr *DownloadError
			require.True(t, errors.As(err, &downloadErr))
			assert.Equal(t, tt.url, downloadErr.URL)
			if tt.wantStatus != 0 {
				var httpErr *httpclient.HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			}
		})
	}
}

func TestHTTPDownloader_RateLimited(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("img"))
	}))
	defer server.Close()

	downloader := NewHTTPDownloader(httpclient.NewDefaultClient(5*time.Second), 20)

	start := time.Now()
	for range 3 {
		_, err := downloader.Download(context.Background(), server.URL)
		require.NoError(t, err)
	}

	// burst of one: the second and third requests each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPDownloader_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer server.Close()

	downloader := NewHTTPDownloader(httpclient.NewDefaultClient(5*time.Second), 0.001)
	_, err := downloader.Download(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = downloader.Download(ctx, server.URL)

	var downloadErr *DownloadError
	require.True(t, errors.As(err, &downloadErr))
}

func TestHTTPDownloader_ClientErrors(t *testing.T) {
	t.Parallel()

	const photoURL = "https://cdn.example.com/photos/501.jpg"
	errReset := errors.New("connection reset by peer")

	tests := []struct {
		name      string
		url       string
		cancelled bool
		setup     func(client *mocks.MockClient)
		want      []byte
		wantErr   error
	}{
		{
			name: "bytes from the client are returned",
			url:  photoURL,
			setup: func(client *mocks.MockClient) {
				client.EXPECT().Get(gomock.Any(), photoURL).Return([]byte("jpeg"), nil)
			},
			want: []byte("jpeg"),
		},
		{
			name: "transport failure is wrapped",
			url:  photoURL,
			setup: func(client *mocks.MockClient) {
				client.EXPECT().Get(gomock.Any(), photoURL).Return(nil, errReset)
			},
			wantErr: errReset,
		},
		{
			name: "empty body from the client",
			url:  photoURL,
			setup: func(client *mocks.MockClient) {
				client.EXPECT().Get(gomock.Any(), photoURL).Return([]byte{}, nil)
			},
		},
		{
			name: "blank url never reaches the client",
			url:  "",
		},
		{
			name:      "cancelled run never reaches the client",
			url:       photoURL,
			cancelled: true,
			wantErr:   context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			if tt.setup != nil {
				tt.setup(client)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancelled {
				cancel()
			}

			data, err := NewHTTPDownloader(client, 0).Download(ctx, tt.url)
			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, data)
				return
			}

			require.Error(t, err)
			assert.Nil(t, data)
			var downloadErr *DownloadError
			require.True(t, errors.As(err, &downloadErr))
			assert.Equal(t, tt.url, downloadErr.URL)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
