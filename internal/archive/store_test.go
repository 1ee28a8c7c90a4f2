package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte // key -> body
	getErr   error
}

type putCall struct {
	bucket string
	key    string
	body   []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket: *input.Bucket,
		key:    *input.Key,
		body:   body,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func fixedStore(mock S3API) *Store {
	store := NewStore(mock, "test-bucket", nil)
	store.now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }
	return store
}

func TestStore_PutTranscript(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	key, err := store.PutTranscript(context.Background(), &TranscriptRecord{LeadID: "lead-1", Channel: "web"}, []Message{
		{Role: "user", Content: "Hallo"},
		{Role: "assistant", Content: "Guten Tag!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "transcripts/v1/by-date/2025/06/10/lead-1.jsonl", key)

	require.Len(t, mock.putCalls, 2, "transcript + manifest")
	assert.Equal(t, "test-bucket", mock.putCalls[0].bucket)

	lines := bytes.Split(bytes.TrimSpace(mock.putCalls[0].body), []byte("\n"))
	require.Len(t, lines, 3)
	var header TranscriptRecord
	require.NoError(t, json.Unmarshal(lines[0], &header))
	assert.Equal(t, "1.0", header.Version)
	assert.Equal(t, 2, header.MessageCount)
	var second Message
	require.NoError(t, json.Unmarshal(lines[2], &second))
	assert.Equal(t, Message{Role: "assistant", Content: "Guten Tag!"}, second)

	assert.Equal(t, "transcripts/v1/manifests/2025-06.jsonl", mock.putCalls[1].key)
	var entry ManifestEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(mock.putCalls[1].body), &entry))
	assert.Equal(t, "lead-1", entry.LeadID)
	assert.Equal(t, key, entry.S3Key)
}

func TestStore_Disabled(t *testing.T) {
	store := NewStore(nil, "", nil)
	assert.False(t, store.Enabled())

	key, err := store.PutTranscript(context.Background(), &TranscriptRecord{}, nil)
	assert.NoError(t, err)
	assert.Empty(t, key)
}

func TestStore_ManifestAppend(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	require.NoError(t, store.AppendManifest(context.Background(), ManifestEntry{LeadID: "lead-1"}))
	require.NoError(t, store.AppendManifest(context.Background(), ManifestEntry{LeadID: "lead-2"}))

	lastPut := mock.putCalls[len(mock.putCalls)-1]
	lines := bytes.Split(bytes.TrimSpace(lastPut.body), []byte("\n"))
	assert.Len(t, lines, 2)
}

func TestStore_ManifestReadFailure(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("AccessDenied")
	store := fixedStore(mock)

	err := store.AppendManifest(context.Background(), ManifestEntry{LeadID: "lead-1"})
	assert.ErrorContains(t, err, "AccessDenied")
	assert.Empty(t, mock.putCalls, "an unreadable manifest is never overwritten")

	_, err = store.PutTranscript(context.Background(), &TranscriptRecord{LeadID: "lead-1"}, nil)
	assert.NoError(t, err, "manifest failures do not fail the transcript")
}

func TestTranscriptArchiverScrubsPII(t *testing.T) {
	mock := newMockS3()
	archiver := NewTranscriptArchiver(fixedStore(mock), nil)

	err := archiver.HandleLead(context.Background(), &leads.Lead{
		ID:         "lead-7",
		SessionKey: "web:abc",
		Channel:    "web",
		Name:       "Anna Müller",
		Phone:      "0341123456",
		Reason:     "Zahnschmerzen",
		Urgency:    leads.UrgencyUrgent,
		Transcript: []string{
			"user: Ich bin Anna Müller, 0341 123456",
			"assistant: Danke, Frau Müller.",
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, mock.putCalls)

	body := string(mock.putCalls[0].body)
	assert.NotContains(t, body, "0341")
	assert.Contains(t, body, "[PHONE]")
	assert.Contains(t, body, HashPhone("0341123456"))
	assert.Contains(t, body, "Anna Müller")
	assert.Equal(t, "archive", archiver.Name())
}

func TestTranscriptArchiverDisabled(t *testing.T) {
	archiver := NewTranscriptArchiver(NewStore(nil, "", nil), nil)
	assert.NoError(t, archiver.HandleLead(context.Background(), &leads.Lead{ID: "x"}))
}

func TestParseTranscript(t *testing.T) {
	msgs := ParseTranscript([]string{"user: Hallo", "assistant: Guten Tag: wie geht's?", "ohne Rolle"})
	assert.Equal(t, []Message{
		{Role: "user", Content: "Hallo"},
		{Role: "assistant", Content: "Guten Tag: wie geht's?"},
		{Role: "user", Content: "ohne Rolle"},
	}, msgs)
}
