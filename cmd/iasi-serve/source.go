package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/fatih/color"
	"github.com/jddeal/go-iasi/l1c"
	"github.com/sirupsen/logrus"
)

// errProductNotFound the source has no product of that name
var errProductNotFound = errors.New("product not found")

// errInvalidName product names are plain file names
var errInvalidName = errors.New("invalid product name")

// productSource lists and loads IASI L1C products
type productSource interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*l1c.File, error)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", errInvalidName, name)
	}
	return nil
}

// localSource serves the products stored in a directory
type localSource struct {
	dir  string
	opts []l1c.Option
}

func (s *localSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *localSource) Load(ctx context.Context, name string) (*l1c.File, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := l1c.Open(filepath.Join(s.dir, name), s.opts...)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errProductNotFound, name)
	}
	return f, err
}

// s3Source serves the products stored under a prefix of a bucket
type s3Source struct {
	svc    s3iface.S3API
	bucket string
	prefix string
	opts   []l1c.Option
}

func newS3Source(cfg S3, opts []l1c.Option) (*s3Source, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.AnonymousCredentials,
		Region:      aws.String(cfg.Region),
	})
	if err != nil {
		return nil, err
	}
	return &s3Source{
		svc:    s3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		opts:   opts,
	}, nil
}

func (s *s3Source) List(ctx context.Context) ([]string, error) {
	prefix := s.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	names := []string{}
	err := s.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			names = append(names, path.Base(key))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *s3Source) Load(ctx context.Context, name string) (*l1c.File, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	key := path.Join(s.prefix, name)
	obj, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: %s", errProductNotFound, name)
		}
		return nil, err
	}
	defer obj.Body.Close()

	size := aws.Int64Value(obj.ContentLength)
	logrus.Infof("decoding s3://%s/%s (%s bytes)", s.bucket, key, color.CyanString("%d", size))
	return l1c.NewFile(bufio.NewReader(obj.Body), size, s.opts...)
}
