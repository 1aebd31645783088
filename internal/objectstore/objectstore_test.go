package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/persistence"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	s := newStore(api, "bucket", nil)
	snap := core.Snapshot{
		Bills:    []core.Bill{{ID: "b", Title: "Rent", Amount: core.NewMoney(1200, 0), DueDate: core.DayOfMonth(1), Category: "Housing", Type: core.BillMonthly}},
		Accounts: []core.Account{{ID: "3", Name: "Credit Card", Type: core.AccountCredit, Balance: core.NewMoney(-450, 0), Currency: "USD", Source: core.SourceManual}},
	}

	require.NoError(t, s.SaveSnapshot(ctx, "alice", snap))
	assert.Contains(t, api.objects, "users/alice/snapshot.json")
	assert.Contains(t, string(api.objects["users/alice/snapshot.json"]), `"balance":-450.00`)

	got, err := s.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, snap.Clone(), got)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	_, err := newStore(newFakeS3(), "bucket", nil).LoadSnapshot(context.Background(), "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSavePropagatesErrors(t *testing.T) {
	api := newFakeS3()
	api.putErr = errors.New("access denied")
	err := newStore(api, "bucket", nil).SaveSnapshot(context.Background(), "u", core.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	err = newStore(newFakeS3(), "bucket", nil).SaveSnapshot(context.Background(), "", core.Snapshot{})
	assert.Error(t, err)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	s := newStore(api, "bucket", nil)
	require.NoError(t, s.SaveSnapshot(ctx, "bob", core.Snapshot{}))
	require.NoError(t, s.SaveSnapshot(ctx, "alice", core.Snapshot{}))
	api.objects["users/carol/other.json"] = []byte("{}")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"localstack", Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:4566"}, false},
		{"empty bucket", Config{Region: "us-east-1"}, true},
		{"empty region", Config{Bucket: "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}
