// Package archive persists raw scraped pages and finished analyses to S3 so
// a pipeline run's inputs can be audited or replayed after the fact.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"reviewlens/extraction"
	"reviewlens/types"
)

// Config selects the bucket and key layout. Credentials come from the
// standard AWS config chain.
type Config struct {
	Bucket string
	Region string
	// Prefix is prepended to every key, e.g. "reviewlens/".
	Prefix string
	// UsePathStyle forces path-style addressing for S3-compatible providers.
	UsePathStyle bool
}

// Archiver writes pipeline artifacts to a bucket.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an Archiver using the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "loading AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
	}, nil
}

// ArchivePages stores each scraped document under
// <prefix>/reviews/<productID>/<n>-<domain>.json. Failures on individual
// documents are logged and skipped; the first error is returned so the
// caller can decide whether to care.
func (a *Archiver) ArchivePages(ctx context.Context, productID string, docs []*extraction.Document) error {
	var firstErr error
	stored := 0
	for i, doc := range docs {
		key := a.key(fmt.Sprintf("reviews/%s/%03d-%s.json", productID, i, doc.Domain()))
		if err := a.putJSON(ctx, key, doc); err != nil {
			log.Printf("[archive] %s: upload %s failed: %v", productID, key, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	log.Printf("[archive] %s: stored %d/%d pages", productID, stored, len(docs))
	return firstErr
}

// ArchiveAnalysis stores the final analysis under
// <prefix>/analyses/<productID>.json, overwriting any previous run's copy.
func (a *Archiver) ArchiveAnalysis(ctx context.Context, analysis *types.AnalysisResult) error {
	key := a.key("analyses/" + analysis.ProductID + ".json")
	if err := a.putJSON(ctx, key, analysis); err != nil {
		return err
	}
	log.Printf("[archive] %s: stored analysis at %s", analysis.ProductID, key)
	return nil
}

func (a *Archiver) putJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return types.Wrap(types.KindInternal, err, "marshaling archive object %s", key)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return types.Wrap(types.KindUpstreamTransient, err, "uploading %s", key)
	}
	return nil
}

func (a *Archiver) key(suffix string) string {
	if a.prefix == "" {
		return suffix
	}
	return a.prefix + "/" + suffix
}
