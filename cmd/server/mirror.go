package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"railcraft.ai/internal/persistence/s3mirror"
)

// buildMirror returns nil unless RC_S3_MIRROR is true.
func buildMirror(dataDir string, log *zap.Logger) (*s3mirror.Mirror, error) {
	if !envBool("RC_S3_MIRROR", false) {
		return nil, nil
	}
	creds := s3mirror.Credentials{
		Endpoint:        os.Getenv("RC_S3_ENDPOINT"),
		Region:          strings.TrimSpace(os.Getenv("RC_S3_REGION")),
		Bucket:          os.Getenv("RC_S3_BUCKET"),
		AccessKeyID:     os.Getenv("RC_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("RC_S3_SECRET_ACCESS_KEY"),
	}
	client, err := s3mirror.NewClient(creds)
	if err != nil {
		return nil, fmt.Errorf("RC_S3_MIRROR=true: %w", err)
	}
	return s3mirror.NewMirror(client, s3mirror.Options{
		DataDir: dataDir,
		Prefix:  strings.TrimSpace(os.Getenv("RC_S3_PREFIX")),
		Workers: envInt("RC_S3_UPLOAD_WORKERS", 2),
	}, log), nil
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
