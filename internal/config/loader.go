package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/httpx"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrEmptyConfig    = errors.New("config is empty")
	ErrInvalidS3URL   = errors.New("invalid s3 url, expected s3://bucket/path/to/config.yaml")
)

// DefaultSource returns the config source to use when --config is not
// given: the CONFIG_SOURCE environment variable, else config.yaml.
func DefaultSource() string {
	if env := os.Getenv("CONFIG_SOURCE"); env != "" {
		return env
	}
	return "config.yaml"
}

// Load fetches the config from a local path, http(s) URL or s3 URL,
// expands environment placeholders and decodes it.
func Load(ctx context.Context, source string, strictEnv bool) (*Config, error) {
	raw, err := fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyConfig, source)
	}
	return Parse(raw, source, strictEnv)
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	parsed, _ := url.Parse(source)
	scheme := ""
	if parsed != nil {
		scheme = parsed.Scheme
	}

	switch scheme {
	case "s3":
		logger.Debug("loading config from s3: %s", source)
		return fetchS3(ctx, parsed)
	case "http", "https":
		logger.Debug("loading config over http: %s", source)
		return httpx.New().Fetch(ctx, source, nil)
	default:
		logger.Debug("loading config from file: %s", source)
		data, err := os.ReadFile(source)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, source)
		}
		return data, err
	}
}

func fetchS3(ctx context.Context, parsed *url.URL) ([]byte, error) {
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidS3URL, parsed.String())
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3-compatible stores (minio etc.) via a custom endpoint
		if endpoint := os.Getenv("S3_ENDPOINT_URL"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3 object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
