/*
Package upload is the client for the hosting backend, which accepts an
encoded video over HTTP and forwards it to the video hosting service. The
manifest travels as the video description so the decode side can recover it
from the hosting metadata alone.
*/
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Client posts encoded videos to a backend upload endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// New returns a Client for the given endpoint URL.
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
}

// Upload posts the video with its title and description as a multipart
// form and returns the hosting id assigned by the backend.
func (c *Client) Upload(ctx context.Context, videoPath, title, description string) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("video", filepath.Base(videoPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("title", title); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("description", description); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload: backend returned %s: %s", resp.Status, body)
	}

	var result struct {
		VideoID string `json:"video_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("upload: parse response: %w", err)
	}
	if result.VideoID == "" {
		return "", fmt.Errorf("upload: backend response carries no video id: %s", body)
	}

	return result.VideoID, nil
}

// WatchURL returns the public link for an uploaded video.
func WatchURL(videoID string) string {
	return "https://youtu.be/" + videoID
}
