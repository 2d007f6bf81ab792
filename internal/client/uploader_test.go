package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedUpload struct {
	filename    string
	contentType string
	content     string
	style       string
}

func uploadServer(t *testing.T, status int, body string, got *capturedUpload) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			fh, err := func() (*capturedUpload, error) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					return nil, err
				}
				f, hdr, err := r.FormFile("file")
				if err != nil {
					return nil, err
				}
				defer f.Close()
				data, err := io.ReadAll(f)
				if err != nil {
					return nil, err
				}
				return &capturedUpload{
					filename:    hdr.Filename,
					contentType: hdr.Header.Get("Content-Type"),
					content:     string(data),
					style:       r.FormValue("style"),
				}, nil
			}()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			*got = *fh
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientUploadSuccess(t *testing.T) {
	var got capturedUpload
	srv := uploadServer(t, http.StatusOK, `{"success":true,"result_url":"/static/results/x_styled.mp4","download_url":"/download/x_styled.mp4","job_id":"x","media_type":"video"}`, &got)

	c, err := NewHTTPClient(srv.URL, nil)
	require.NoError(t, err)

	res, err := c.Upload(context.Background(), FileFromBytes(`my "clip".mp4`, "video/mp4", []byte("frames")), "anime")
	require.NoError(t, err)

	assert.Equal(t, `my "clip".mp4`, got.filename)
	assert.Equal(t, "video/mp4", got.contentType)
	assert.Equal(t, "frames", got.content)
	assert.Equal(t, "anime", got.style)

	assert.Equal(t, srv.URL+"/static/results/x_styled.mp4", res.ResultURL)
	assert.Equal(t, srv.URL+"/download/x_styled.mp4", res.DownloadURL)
	assert.Equal(t, "x", res.JobID)
	assert.Equal(t, "video", res.MediaType)
}

func TestHTTPClientUploadFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "server error message", status: http.StatusBadRequest, body: `{"success":false,"error":"Invalid style selected","code":"INVALID_STYLE"}`, want: "Invalid style selected"},
		{name: "no error message", status: http.StatusOK, body: `{"success":false}`, want: MsgProcessing},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Network error: invalid response (status 502)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := uploadServer(t, tt.status, tt.body, nil)
			c, err := NewHTTPClient(srv.URL, nil)
			require.NoError(t, err)

			_, err = c.Upload(context.Background(), FileFromBytes("a.png", "image/png", []byte("x")), "cartoon")
			require.Error(t, err)

			var rerr *RequestError
			require.True(t, errors.As(err, &rerr))
			assert.True(t, strings.HasPrefix(ErrorText(err), tt.want), "got %q", ErrorText(err))
		})
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, nil)
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), FileFromBytes("a.png", "image/png", []byte("x")), "cartoon")
	var rerr *RequestError
	require.True(t, errors.As(err, &rerr))
	assert.NotNil(t, rerr.Err)
	assert.True(t, strings.HasPrefix(ErrorText(err), "Network error: "))
}

func TestHTTPClientOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			return
		}
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, nil)
	require.NoError(t, err)

	broken := &File{Name: "gone.png", Type: "image/png", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	}}
	_, err = c.Upload(context.Background(), broken, "cartoon")
	require.Error(t, err)
	assert.Contains(t, ErrorText(err), "Network error: ")
}

func TestHTTPClientNilFile(t *testing.T) {
	c, err := NewHTTPClient("http://localhost:5000", nil)
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), nil, "cartoon")
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestHTTPClientStyles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/styles" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"styles":[{"key":"ghibli","label":"Studio Ghibli Style"},{"key":"cartoon","label":"Cartoon Style"}],"default":"cartoon"}`)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/", nil)
	require.NoError(t, err)

	styles, def, err := c.Styles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cartoon", def)
	require.Len(t, styles, 2)
	assert.Equal(t, "ghibli", styles[0].Key)
	assert.Equal(t, "Cartoon Style", styles[1].Label)
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com", nil)
	assert.Error(t, err)
	_, err = NewHTTPClient("://nope", nil)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	c, err := NewHTTPClient("http://example.com/studio", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/studio/download/a.png", c.resolve("/download/a.png"))
	assert.Equal(t, "https://cdn.example.com/a.png", c.resolve("https://cdn.example.com/a.png"))
	assert.Equal(t, "", c.resolve(""))
}
