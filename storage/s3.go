package storage

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog/log"
)

const presignDuration = 15 * time.Minute

type S3Storage struct {
	Bucket   Bucket
	s3Client *s3.S3
	uploader *s3manager.Uploader
}

func NewS3Storage(bucket *Bucket) (*S3Storage, error) {
	cfg := &aws.Config{
		Region:      aws.String(bucket.Region),
		Credentials: credentials.NewStaticCredentials(bucket.S3Key, bucket.S3Secret, ""),
	}
	if bucket.Endpoint != "" {
		cfg.Endpoint = aws.String(bucket.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	client := s3.New(sess)
	return &S3Storage{
		Bucket:   *bucket,
		s3Client: client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

func (s *S3Storage) remotePath(name string) string {
	prefix := strings.Trim(s.Bucket.Path, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}

func (s *S3Storage) Save(name string, reader io.Reader) (int64, error) {
	if !validName(name) {
		return 0, errInvalidName
	}
	body := &countingReader{Reader: reader}
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket.Name),
		Key:         aws.String(s.remotePath(name)),
		ContentType: aws.String(ContentTypeFor(name)),
		Body:        body,
	})
	return body.n, err
}

func (s *S3Storage) Delete(name string) error {
	if !validName(name) {
		return errInvalidName
	}
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket.Name),
		Key:    aws.String(s.remotePath(name)),
	})
	return err
}

// Serve redirects to a short lived presigned URL
func (s *S3Storage) Serve(name string, request *http.Request, writer http.ResponseWriter) error {
	if !validName(name) {
		return ErrNotFound
	}
	_, err := s.s3Client.HeadObjectWithContext(request.Context(), &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket.Name),
		Key:    aws.String(s.remotePath(name)),
	})
	if err != nil {
		var reqErr awserr.RequestFailure
		if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
			return ErrNotFound
		}
		return err
	}
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.Bucket.Name),
		Key:    aws.String(s.remotePath(name)),
	})
	url, err := req.Presign(presignDuration)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("cannot presign image URL")
		return err
	}
	http.Redirect(writer, request, url, http.StatusTemporaryRedirect)
	return nil
}
