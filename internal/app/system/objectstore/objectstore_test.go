package objectstore

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_Put(t *testing.T) {
	api := &fakeS3{}
	st := NewS3WithClient(api, Config{Region: "us-east-1", Bucket: "clubbera"})

	obj, err := st.Put(context.Background(), "banners/a.png", []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://clubbera.s3.us-east-1.amazonaws.com/banners/a.png", obj.Location)
	assert.Equal(t, "clubbera", aws.ToString(api.put.Bucket))
	assert.Equal(t, types.ObjectCannedACLPublicRead, api.put.ACL)
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, []byte("img"), api.body)
}

func TestS3_PublicURLAndErrors(t *testing.T) {
	api := &fakeS3{}
	st := NewS3WithClient(api, Config{Bucket: "b", PublicURL: "https://cdn.example.com/"})

	obj, err := st.Put(context.Background(), "k", nil, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k", obj.Location)

	require.NoError(t, st.Delete(context.Background(), "k"))
	assert.Equal(t, "k", api.deleted)

	api.err = errors.New("boom")
	_, err = st.Put(context.Background(), "k", nil, "image/jpeg")
	assert.ErrorContains(t, err, "boom")
}

// 1x1 transparent PNG.
const pngB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestDecodeBase64Image(t *testing.T) {
	body, ctype, err := DecodeBase64Image(pngB64)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)
	assert.NotEmpty(t, body)

	_, ctype, err = DecodeBase64Image("data:image/png;base64," + pngB64)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)

	// Unsniffable bytes fall back to the declared type.
	raw := base64.StdEncoding.EncodeToString([]byte("not really an image"))
	_, ctype, err = DecodeBase64Image("data:image/heic;base64," + raw)
	require.NoError(t, err)
	assert.Equal(t, "image/heic", ctype)

	for _, bad := range []string{"", "   ", "data:image/png;base64", "!!!not base64!!!"} {
		_, _, err := DecodeBase64Image(bad)
		assert.ErrorIs(t, err, ErrNoImageData, bad)
	}
}

func TestKeys(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "profile-photos/abc-1700000000123.jpg", ProfilePhotoKey("abc", at))

	k := BannerKey("group-banners/", "Photo.PNG")
	assert.True(t, strings.HasPrefix(k, "group-banners/"))
	assert.True(t, strings.HasSuffix(k, ".png"))
	assert.True(t, strings.HasSuffix(BannerKey("event-banners", ""), ".jpg"))
}

func TestMemory(t *testing.T) {
	m := NewMemory("http://localhost/uploads/")
	obj, err := m.Put(context.Background(), "a/b.jpg", []byte("x"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/uploads/a/b.jpg", obj.Location)
	assert.True(t, m.Has("a/b.jpg"))
	require.NoError(t, m.Delete(context.Background(), "a/b.jpg"))
	assert.False(t, m.Has("a/b.jpg"))
}
