package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/legisync/internal/core/errs"
)

// fakeS3 serves objects from a map, two keys per page.
type fakeS3 struct {
	objects map[string]string
	keys    []string
	getErr  error
	gets    []string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range f.keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	out := &s3.ListObjectsV2Output{}
	for i := start; i < len(f.keys) && len(out.Contents) < 2; i++ {
		k := f.keys[i]
		if !strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k])))})
		if len(out.Contents) == 2 && i+1 < len(f.keys) {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(f.keys[i+1])
		}
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.objects[key]))}, nil
}

func newFake() *fakeS3 {
	f := &fakeS3{objects: map[string]string{
		"extracts/2024/deputados.csv":   "id;nome\n1;Ana\n",
		"extracts/2024/proposicoes.csv": "id;siglaTipo\n",
		"extracts/2024/README.md":       "docs",
		"extracts/2024/votos.CSV":       "idVotacao;idDeputado;voto\n",
		"other/despesas.csv":            "ignored",
	}}
	for k := range f.objects {
		f.keys = append(f.keys, k)
	}
	slices.Sort(f.keys)
	return f
}

func TestSyncDownloadsCSVUnderPrefix(t *testing.T) {
	fake := newFake()
	dir := filepath.Join(t.TempDir(), "data")
	s := New(fake, "bucket", "extracts/2024/", nil)

	written, err := s.Sync(context.Background(), dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deputados.csv", "proposicoes.csv", "votos.CSV"}, written)

	data, err := os.ReadFile(filepath.Join(dir, "deputados.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id;nome\n1;Ana\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}

func TestSyncDownloadFailureIsClassified(t *testing.T) {
	fake := newFake()
	fake.getErr = errors.New("access denied")
	s := New(fake, "bucket", "extracts/", nil)

	_, err := s.Sync(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errs.KindStore, errs.KindOf(err))
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewSyncerRequiresBucket(t *testing.T) {
	_, err := NewSyncer(context.Background(), Config{Region: "us-east-1"}, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}
