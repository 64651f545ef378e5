package assethost_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairtrack-backend/internal/assethost"
)

func TestClient_SignUpload(t *testing.T) {
	client := assethost.NewClient("https://assets.test.com/v1/", "test-key", "test-secret")

	signed := client.SignUpload("projects/1/repairs/2/photo.jpg", "repairs")

	assert.Equal(t, "test-key", signed.APIKey)
	assert.Equal(t, "https://assets.test.com/v1/image/upload", signed.UploadURL)
	assert.NotZero(t, signed.Timestamp)
	assert.Len(t, signed.Signature, 40)
}

func TestClient_SignUpload_SignatureDependsOnInputs(t *testing.T) {
	client := assethost.NewClient("https://assets.test.com/v1", "test-key", "test-secret")
	other := assethost.NewClient("https://assets.test.com/v1", "test-key", "different-secret")

	a := client.SignUpload("photo-a", "")
	b := client.SignUpload("photo-b", "")
	c := other.SignUpload("photo-a", "")

	assert.NotEqual(t, a.Signature, b.Signature)
	assert.NotEqual(t, a.Signature, c.Signature)
}

func TestClient_UploadBinary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test-key", r.FormValue("api_key"))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.Equal(t, "photo-1", r.FormValue("public_id"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"public_id": "photo-1", "secure_url": "https://assets.test.com/photo-1.jpg"}`))
	}))
	defer server.Close()

	client := assethost.NewClient(server.URL, "test-key", "test-secret")
	signed := client.SignUpload("photo-1", "")
	signed.UploadURL = server.URL + "/image/upload"

	result, err := client.UploadBinary(signed, "photo-1", "", []byte("jpeg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "photo-1", result.PublicID)
	assert.Equal(t, "https://assets.test.com/photo-1.jpg", result.SecureURL)
}

func TestClient_UploadBinary_RejectsEmptySecureURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"public_id": "photo-1"}`))
	}))
	defer server.Close()

	client := assethost.NewClient(server.URL, "test-key", "test-secret")
	signed := client.SignUpload("photo-1", "")
	signed.UploadURL = server.URL + "/image/upload"

	_, err := client.UploadBinary(signed, "photo-1", "", []byte("jpeg-bytes"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "secure_url is empty")
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := assethost.NewClient("https://assets.test.com/v1/", "test-key", "test-secret")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := assethost.NewClient("https://assets.test.com/v1/", "test-key", "test-secret")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
