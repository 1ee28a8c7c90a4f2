package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes transcripts to S3 as JSONL.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   bucket,
		s3Client: s3Client,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// PutTranscript writes the record header followed by one line per message and
// appends the transcript to the monthly manifest. It returns the object key.
func (s *Store) PutTranscript(ctx context.Context, record *TranscriptRecord, msgs []Message) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if record.ArchivedAt.IsZero() {
		record.ArchivedAt = s.now()
	}
	record.Version = recordVersion
	record.MessageCount = len(msgs)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("archive: marshal record: %w", err)
	}
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("archive: marshal message: %w", err)
		}
	}

	at := record.ArchivedAt
	key := fmt.Sprintf("transcripts/v1/by-date/%d/%02d/%02d/%s.jsonl", at.Year(), at.Month(), at.Day(), record.LeadID)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archive: transcript stored",
		"lead_id", record.LeadID,
		"s3_key", key,
		"message_count", record.MessageCount,
	)

	entry := ManifestEntry{
		LeadID:       record.LeadID,
		S3Key:        key,
		Channel:      record.Channel,
		Urgency:      record.Urgency,
		ArchivedAt:   at.Format(time.RFC3339),
		MessageCount: record.MessageCount,
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		// the transcript itself is stored; the manifest can be rebuilt from the prefix
		s.logger.Warn("archive: failed to append manifest", "error", err, "lead_id", record.LeadID)
	}
	return key, nil
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now()
	manifestKey := fmt.Sprintf("transcripts/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("archive: manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "StatusCode: 404")
}
