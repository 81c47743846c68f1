// Package integration holds HTTP tests that run against a deployed stack
// (API + postgres + minio). They are skipped unless MEDIAVAULT_BASE_URL is set.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("MEDIAVAULT_BASE_URL")
	if url == "" {
		t.Skip("MEDIAVAULT_BASE_URL not set, skipping integration test")
	}
	return url
}

func newClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// registerUser creates a fresh user and returns its bearer token.
func registerUser(t *testing.T, client *http.Client) string {
	t.Helper()

	payload := map[string]string{
		"email":    fmt.Sprintf("it_%d@example.com", time.Now().UnixNano()),
		"password": "password123",
		"username": fmt.Sprintf("it_user_%d", time.Now().UnixNano()),
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", baseURL(t)+"/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&registerResp))
	require.NotEmpty(t, registerResp.Token.AccessToken)

	return registerResp.Token.AccessToken
}

// uploadMedia posts one multipart upload of the given size and returns the
// response for the caller to assert on.
func uploadMedia(t *testing.T, client *http.Client, token, title string, size int) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", title))

	part, err := writer.CreateFormFile("media", title+".bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", baseURL(t)+"/v1/media", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// cleanupUser deletes every media object the token owns.
func cleanupUser(t *testing.T, client *http.Client, token string) {
	t.Helper()

	req, _ := http.NewRequest("DELETE", baseURL(t)+"/v1/media", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		t.Logf("cleanup failed: %v", err)
		return
	}
	resp.Body.Close()
}
