package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	searchGUID  = "d2a4b27c-1d11-472a-826e-e953bb2a2a21"
	compareGUID = "bd6e9581-67e0-467f-986e-aa0baa77e43e"
)

func waitForServer(t *testing.T, url string, attempts int) {
	t.Helper()
	for i := 0; i < attempts; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not become ready at %s", url)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 5)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func postPhotos(t *testing.T, url, field string, photos ...[]byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range photos {
		part, err := w.CreateFormFile(field, "photo.png")
		require.NoError(t, err)
		_, err = part.Write(p)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestIntegration(t *testing.T) {
	uploadDir := t.TempDir()

	apiAddr := "127.0.0.1:3789"
	monAddr := "127.0.0.1:3790"

	t.Setenv("UPLOAD_PATH", uploadDir)
	t.Setenv("LISTEN_ADDR", apiAddr)
	t.Setenv("MONITORING_ADDR", monAddr)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	waitForServer(t, fmt.Sprintf("http://%s/monitoring/live", monAddr), 50)

	base := "http://" + apiAddr

	// Readiness: upload dir exists with room to spare
	resp, err := http.Get(fmt.Sprintf("http://%s/monitoring/ready", monAddr))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Step 1: upload a search photo
	resp = postPhotos(t, base+"/search/"+searchGUID, "photo", testPNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var uploadResp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploadResp))
	_ = resp.Body.Close()
	require.True(t, uploadResp.Success)

	// The artifact lands at its hash-derived path on disk
	stored := filepath.Join(uploadDir, "d2", "a4", "b2", searchGUID+".jpg")
	_, err = os.Stat(stored)
	require.NoError(t, err, "expected artifact at %s", stored)

	// Step 2: retrieve it
	resp, err = http.Get(base + "/get/" + searchGUID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Cache-Control"), "max-age=")
	_, err = jpeg.Decode(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err, "served photo must be a decodable JPEG")

	// Step 3: a never-uploaded GUID is a structured 404
	resp, err = http.Get(base + "/get/00000000-0000-4000-8000-000000000000")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp struct {
		Success bool   `json:"success"`
		Status  int    `json:"status"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	_ = resp.Body.Close()
	require.False(t, errResp.Success)
	require.Equal(t, http.StatusNotFound, errResp.Status)
	require.Equal(t, "NOT_FOUND", errResp.Code)

	// Step 4: upload a compare set and count it
	resp = postPhotos(t, base+"/compare/"+compareGUID, "photos", testPNG(t), testPNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(base + "/count/" + compareGUID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var countResp struct {
		Success bool `json:"success"`
		Files   int  `json:"files"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&countResp))
	_ = resp.Body.Close()
	require.True(t, countResp.Success)
	require.Equal(t, 2, countResp.Files)

	// Each compare photo is retrievable by sequence number
	for seq := 0; seq < 2; seq++ {
		resp, err = http.Get(fmt.Sprintf("%s/get/%s/%d", base, compareGUID, seq))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	// Step 5: shut down cleanly
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
