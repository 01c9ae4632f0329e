package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// allUsersURI is the grantee URI S3 uses for anonymous (public) access.
const allUsersURI = "http://acs.amazonaws.com/groups/global/AllUsers"

// Provider implements provider.Provider for AWS S3 and S3-compatible storage.
type Provider struct {
	client  *s3.Client
	bucket  string
	maxKeys int

	// Rate limiter (nil if unlimited)
	limiter *rate.Limiter
}

// Ensure Provider implements the interface.
var _ provider.Provider = (*Provider)(nil)

// New creates a new S3 provider with the given configuration.
//
// The provider uses AWS SDK v2's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &provider.ProviderError{
			Op:       "New",
			Provider: provider.ProviderS3,
			Bucket:   cfg.Bucket,
			Err:      err,
		}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}

	// Custom endpoint for S3-compatible stores
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	p := &Provider{
		client:  s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:  cfg.Bucket,
		maxKeys: maxKeys,
	}
	if cfg.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return p, nil
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	// Only apply explicit region if user set one in config.
	// Let SDK resolve from env/profile first.
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for long-term credentials)
		)
		opts = append(opts, config.WithCredentialsProvider(staticCreds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)

	return awsCfg, nil
}

// PutObject uploads body to key, applying the request options.
func (p *Provider) PutObject(ctx context.Context, key string, body io.Reader, opts provider.Options) error {
	if err := p.wait(ctx); err != nil {
		return p.wrapError("PutObject", key, err)
	}

	input, err := buildPutInput(p.bucket, key, body, opts)
	if err != nil {
		return p.wrapError("PutObject", key, err)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return p.wrapError("PutObject", key, err)
	}
	return nil
}

// UploadFile uploads a local file. When OptionCheckMD5 is "true" the file
// digest is sent as Content-MD5 so the backend rejects corrupted uploads.
func (p *Provider) UploadFile(ctx context.Context, key, localPath string, opts provider.Options) error {
	f, err := os.Open(localPath)
	if err != nil {
		return p.wrapError("UploadFile", key, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return p.wrapError("UploadFile", key, err)
	}

	opts = opts.Clone()
	opts[provider.OptionContentLength] = strconv.FormatInt(st.Size(), 10)

	var contentMD5 string
	if opts[provider.OptionCheckMD5] == "true" {
		h := md5.New()
		if _, err := io.Copy(h, f); err != nil {
			return p.wrapError("UploadFile", key, err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return p.wrapError("UploadFile", key, err)
		}
		contentMD5 = base64.StdEncoding.EncodeToString(h.Sum(nil))
	}

	if err := p.wait(ctx); err != nil {
		return p.wrapError("UploadFile", key, err)
	}

	input, err := buildPutInput(p.bucket, key, f, opts)
	if err != nil {
		return p.wrapError("UploadFile", key, err)
	}
	if contentMD5 != "" {
		input.ContentMD5 = aws.String(contentMD5)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return p.wrapError("UploadFile", key, err)
	}
	return nil
}

// GetObject downloads an object as a stream.
func (p *Provider) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := p.wait(ctx); err != nil {
		return nil, p.wrapError("GetObject", key, err)
	}

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, p.wrapError("GetObject", key, err)
	}
	return out.Body, nil
}

// ObjectExists reports whether key exists using a HEAD request.
func (p *Provider) ObjectExists(ctx context.Context, key string) (bool, error) {
	if err := p.wait(ctx); err != nil {
		return false, p.wrapError("ObjectExists", key, err)
	}

	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)})
	if err != nil {
		wrapped := p.wrapError("ObjectExists", key, err)
		if provider.IsNotFound(wrapped) {
			return false, nil
		}
		return false, wrapped
	}
	return true, nil
}

// DeleteObject deletes an object.
func (p *Provider) DeleteObject(ctx context.Context, key string) error {
	if err := p.wait(ctx); err != nil {
		return p.wrapError("DeleteObject", key, err)
	}

	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)})
	if err != nil {
		return p.wrapError("DeleteObject", key, err)
	}
	return nil
}

// DeleteObjects deletes keys in chunks of MaxAllowedKeys.
//
// Per-key failures reported by the backend are returned as an error naming
// the first failed key.
func (p *Provider) DeleteObjects(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += MaxAllowedKeys {
		end := min(start+MaxAllowedKeys, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		if err := p.wait(ctx); err != nil {
			return p.wrapError("DeleteObjects", "", err)
		}

		out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return p.wrapError("DeleteObjects", "", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return p.wrapError("DeleteObjects", aws.ToString(first.Key),
				fmt.Errorf("%s: %s", aws.ToString(first.Code), aws.ToString(first.Message)))
		}
	}
	return nil
}

// CopyObject performs a server-side copy within the bucket.
func (p *Provider) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if err := p.wait(ctx); err != nil {
		return p.wrapError("CopyObject", srcKey, err)
	}

	_, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(p.bucket, srcKey)),
	})
	if err != nil {
		return p.wrapError("CopyObject", srcKey, err)
	}
	return nil
}

// ListObjects returns one page of a delimiter listing.
func (p *Provider) ListObjects(ctx context.Context, opts provider.ListOptions) (*provider.ListResult, error) {
	maxKeys := clampMaxKeys(opts.MaxKeys, p.maxKeys)

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		MaxKeys: aws.Int32(int32(maxKeys)),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.Marker != "" {
		input.ContinuationToken = aws.String(opts.Marker)
	}

	if err := p.wait(ctx); err != nil {
		return nil, p.wrapError("ListObjects", opts.Prefix, err)
	}

	output, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, p.wrapError("ListObjects", opts.Prefix, err)
	}

	objects := make([]provider.ObjectSummary, 0, len(output.Contents))
	for _, obj := range output.Contents {
		objects = append(objects, provider.ObjectSummary{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         cleanETag(aws.ToString(obj.ETag)),
			LastModified: aws.ToTime(obj.LastModified),
			StorageClass: string(obj.StorageClass),
		})
	}

	prefixes := make([]string, 0, len(output.CommonPrefixes))
	for _, cp := range output.CommonPrefixes {
		prefixes = append(prefixes, aws.ToString(cp.Prefix))
	}

	result := &provider.ListResult{
		Objects:        objects,
		CommonPrefixes: prefixes,
	}
	// A continuation token is only meaningful while the listing is truncated.
	if aws.ToBool(output.IsTruncated) {
		result.NextMarker = aws.ToString(output.NextContinuationToken)
	}

	return result, nil
}

// HeadObject returns the raw metadata fields of an object.
func (p *Provider) HeadObject(ctx context.Context, key string) (map[string]string, error) {
	if err := p.wait(ctx); err != nil {
		return nil, p.wrapError("HeadObject", key, err)
	}

	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(p.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, p.wrapError("HeadObject", key, err)
	}
	return headFields(out), nil
}

// GetObjectACL collapses the object grants into a canned ACL.
func (p *Provider) GetObjectACL(ctx context.Context, key string) (string, error) {
	if err := p.wait(ctx); err != nil {
		return "", p.wrapError("GetObjectACL", key, err)
	}

	out, err := p.client.GetObjectAcl(ctx, &s3.GetObjectAclInput{Bucket: aws.String(p.bucket), Key: aws.String(key)})
	if err != nil {
		return "", p.wrapError("GetObjectACL", key, err)
	}
	return aclFromGrants(out.Grants), nil
}

// PutObjectACL applies a canned ACL to an object.
func (p *Provider) PutObjectACL(ctx context.Context, key, acl string) error {
	if err := p.wait(ctx); err != nil {
		return p.wrapError("PutObjectACL", key, err)
	}

	_, err := p.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACL(acl),
	})
	if err != nil {
		return p.wrapError("PutObjectACL", key, err)
	}
	return nil
}

// Close releases any resources held by the provider.
// The S3 client doesn't require explicit cleanup, but this satisfies the interface.
func (p *Provider) Close() error {
	return nil
}

// wait blocks until the rate limiter allows a request.
func (p *Provider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// buildPutInput maps request options onto a PutObjectInput.
func buildPutInput(bucket, key string, body io.Reader, opts provider.Options) (*s3.PutObjectInput, error) {
	if body == nil {
		body = bytes.NewReader(nil)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}

	for name, value := range opts {
		switch name {
		case provider.OptionCacheControl:
			input.CacheControl = aws.String(value)
		case provider.OptionExpires:
			t, err := http.ParseTime(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
			}
			input.Expires = aws.Time(t)
		case provider.OptionServerSideEncryption:
			input.ServerSideEncryption = types.ServerSideEncryption(value)
		case provider.OptionACL:
			// "default" inherits the bucket ACL; S3 expresses that by omission.
			if value != "" && value != provider.ACLDefault {
				input.ACL = types.ObjectCannedACL(value)
			}
		case provider.OptionContentType:
			input.ContentType = aws.String(value)
		case provider.OptionContentDisposition:
			input.ContentDisposition = aws.String(value)
		case provider.OptionContentLanguage:
			input.ContentLanguage = aws.String(value)
		case provider.OptionContentEncoding:
			input.ContentEncoding = aws.String(value)
		case provider.OptionContentLength:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
			}
			input.ContentLength = aws.Int64(n)
		case provider.OptionMetadataDirective:
			// S3 takes a metadata directive on CopyObject only; PutObject has none.
		default:
			if meta, ok := strings.CutPrefix(strings.ToLower(name), "x-amz-meta-"); ok {
				if input.Metadata == nil {
					input.Metadata = map[string]string{}
				}
				input.Metadata[meta] = value
			}
		}
	}

	return input, nil
}

// headFields flattens a HeadObject response into lower-case header fields.
func headFields(out *s3.HeadObjectOutput) map[string]string {
	fields := map[string]string{
		"content-length": strconv.FormatInt(aws.ToInt64(out.ContentLength), 10),
	}
	set := func(name string, v *string) {
		if s := aws.ToString(v); s != "" {
			fields[name] = s
		}
	}
	set("content-type", out.ContentType)
	set("etag", aws.String(cleanETag(aws.ToString(out.ETag))))
	set("cache-control", out.CacheControl)
	set("content-disposition", out.ContentDisposition)
	set("content-encoding", out.ContentEncoding)
	set("content-language", out.ContentLanguage)
	set("expires", out.ExpiresString)
	if out.LastModified != nil {
		fields["last-modified"] = out.LastModified.UTC().Format(http.TimeFormat)
	}
	if out.StorageClass != "" {
		fields["x-amz-storage-class"] = string(out.StorageClass)
	}
	if out.ServerSideEncryption != "" {
		fields["x-amz-server-side-encryption"] = string(out.ServerSideEncryption)
	}
	for k, v := range out.Metadata {
		fields["x-amz-meta-"+strings.ToLower(k)] = v
	}
	return fields
}

// aclFromGrants reports public-read when anonymous users may read the object.
func aclFromGrants(grants []types.Grant) string {
	for _, g := range grants {
		if g.Grantee == nil || g.Grantee.Type != types.TypeGroup {
			continue
		}
		if aws.ToString(g.Grantee.URI) != allUsersURI {
			continue
		}
		if g.Permission == types.PermissionRead || g.Permission == types.PermissionFullControl {
			return provider.ACLPublicRead
		}
	}
	return provider.ACLPrivate
}

// copySource builds the URL-escaped "bucket/key" copy source.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// wrapError converts S3 errors to provider errors with appropriate sentinel errors.
func (p *Provider) wrapError(op, key string, err error) error {
	wrapped := &provider.ProviderError{
		Op:       op,
		Provider: provider.ProviderS3,
		Bucket:   p.bucket,
		Key:      key,
		Err:      err,
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		wrapped.Err = provider.ErrNotFound
		return wrapped
	case errors.As(err, &noSuchBucket):
		wrapped.Err = provider.ErrBucketNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			wrapped.Err = provider.ErrNotFound
		case "NoSuchBucket":
			wrapped.Err = provider.ErrBucketNotFound
		case "AccessDenied", "Forbidden":
			wrapped.Err = provider.ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = provider.ErrInvalidCredentials
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = provider.ErrThrottled
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = provider.ErrProviderUnavailable
		}
		return wrapped
	}

	// Fallback: check error message for common cases
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "NoSuchKey") || strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "404"):
		wrapped.Err = provider.ErrNotFound
	case strings.Contains(errMsg, "NoSuchBucket"):
		wrapped.Err = provider.ErrBucketNotFound
	case strings.Contains(errMsg, "AccessDenied") || strings.Contains(errMsg, "Forbidden") || strings.Contains(errMsg, "403"):
		wrapped.Err = provider.ErrAccessDenied
	case strings.Contains(errMsg, "InvalidAccessKeyId") || strings.Contains(errMsg, "SignatureDoesNotMatch"):
		wrapped.Err = provider.ErrInvalidCredentials
	case strings.Contains(errMsg, "SlowDown") || strings.Contains(errMsg, "Throttling") || strings.Contains(errMsg, "429"):
		wrapped.Err = provider.ErrThrottled
	case strings.Contains(errMsg, "ServiceUnavailable") || strings.Contains(errMsg, "503"):
		wrapped.Err = provider.ErrProviderUnavailable
	}

	return wrapped
}

// cleanETag removes surrounding quotes from an ETag value.
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// clampMaxKeys applies defaults and limits to maxKeys values.
func clampMaxKeys(requested, providerDefault int) int {
	if requested <= 0 {
		requested = providerDefault
	}
	if requested > MaxAllowedKeys {
		return MaxAllowedKeys
	}
	return requested
}

// resolveRegion applies the us-east-1 fallback for AWS S3 when the SDK did
// not resolve a region. S3-compatible endpoints get no default.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}
