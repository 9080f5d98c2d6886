package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	gets    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var contents []types.Object
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(k)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents, IsTruncated: aws.Bool(false)}, nil
}

func TestS3Source_ListFallback(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"defs/fhir-r4/resources/Patient.json":                   patientFlat,
		"defs/us-core-stu6.1/profiles/USCorePatientProfile.json": usCorePatient,
	}}
	src := newS3Source(client, "bucket", "/defs/")

	idx, err := src.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx.ByName, 2)
	assert.Equal(t, "defs/index/resources.json", client.gets[0])

	s := New(src, nil)
	d, err := s.Get(context.Background(), "USCorePatientProfile", NamespaceUSCore)
	require.NoError(t, err)
	assert.True(t, d.IsProfile())
}

func TestS3Source_IndexObject(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"index/resources.json":           `{"byName":{"Patient":{"spec":"fhir-r4","type":"resource","file":"fhir-r4/resources/Patient.json"}}}`,
		"fhir-r4/resources/Patient.json": patientFlat,
	}}
	src := newS3Source(client, "bucket", "")

	idx, err := src.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Contains(t, idx.ByName, "Patient")
}

func TestS3Source_MissingObject(t *testing.T) {
	src := newS3Source(&fakeS3{objects: map[string]string{}}, "bucket", "")
	_, err := src.ReadFile(context.Background(), "fhir-r4/resources/Nope.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}
