package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairammr/TruthCast/internal/common"
)

type fakeS3 struct {
	putErr error
	inputs []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploadBinary(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{client: api, bucket: "truthcast"}

	uri, err := u.UploadBinary(context.Background(), []byte("bytes"), "deeptruth.mp4", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(uri, "s3://truthcast/media/"), uri)
	assert.True(t, strings.HasSuffix(uri, "_deeptruth.mp4"), uri)

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "truthcast", *in.Bucket)
	assert.Equal(t, s3types.ObjectCannedACLPublicRead, in.ACL)

	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), body)
}

func TestS3UploadBinaryWithPolicyStaysPrivate(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{client: api, bucket: "truthcast"}

	_, err := u.UploadBinary(context.Background(), []byte("b"), "f.mp4",
		&AccessPolicy{Account: "0xabc"})
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	assert.Empty(t, api.inputs[0].ACL)
}

func TestS3UploadJSON(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{client: api, bucket: "truthcast"}

	uri, err := u.UploadJSON(context.Background(), map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(uri, "_metadata.json"), uri)

	require.Len(t, api.inputs, 1)
	assert.Equal(t, "application/json", *api.inputs[0].ContentType)

	body, err := io.ReadAll(api.inputs[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(body))
}

func TestS3UploadFailed(t *testing.T) {
	api := &fakeS3{putErr: errors.New("backend down")}
	u := &S3Uploader{client: api, bucket: "truthcast"}

	_, err := u.UploadBinary(context.Background(), []byte("b"), "f", nil)
	assert.ErrorIs(t, err, common.ErrUploadFailed)

	_, err = u.UploadJSON(context.Background(), map[string]string{})
	assert.ErrorIs(t, err, common.ErrUploadFailed)
}

func TestRandomStorageKeysDistinct(t *testing.T) {
	assert.NotEqual(t, randomStorageKey("a.mp4"), randomStorageKey("a.mp4"))
}
