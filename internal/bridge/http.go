package bridge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	logger "github.com/PolarWolf314/storjcli/internal/logging"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public bridge endpoint.
	DefaultBaseURL = "https://api.storj.io"

	// DefaultTimeout bounds every JSON call and the wait for transfer response headers.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryMax is the number of retries for a failed call.
	DefaultRetryMax = 2

	maxErrorBody = 4 << 10
)

// Options configures NewClient.
type Options struct {
	BaseURL  string
	User     string
	Password string

	// LogLevel is silent (default), debug, info, warn or error.
	// Ignored when Logger is set.
	LogLevel string
	Logger   *zap.Logger

	Timeout time.Duration

	// RetryMax of zero uses DefaultRetryMax; a negative value disables retries.
	// GET and DELETE retry on connection errors and 5xx answers. POST and PUT
	// retry only when the connection could not be opened.
	RetryMax int

	// RetryWait fixes the backoff between retries. Zero keeps the
	// retryablehttp defaults.
	RetryWait time.Duration

	// HTTPClient replaces the pooled transport, mainly for tests.
	HTTPClient *http.Client
}

// HTTPClient talks to a bridge over its JSON/HTTP API.
type HTTPClient struct {
	baseURL  string
	user     string
	passHash string
	timeout  time.Duration
	http     *retryablehttp.Client
	once     *retryablehttp.Client
	log      *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// HashPassword is the credential form the bridge expects in basic auth.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// NewClient builds a bridge client. Construction never fails; bad URLs and
// unreachable hosts surface as transport errors on the first call.
func NewClient(opts Options) *HTTPClient {
	log := opts.Logger
	if log == nil {
		log = logger.NewZap(opts.LogLevel)
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retryMax := opts.RetryMax
	switch {
	case retryMax < 0:
		retryMax = 0
	case retryMax == 0:
		retryMax = DefaultRetryMax
	}

	newRetrying := func(policy retryablehttp.CheckRetry) *retryablehttp.Client {
		rc := retryablehttp.NewClient()
		rc.Logger = leveledLogger{s: log.Sugar()}
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
		rc.CheckRetry = policy
		rc.RetryMax = retryMax
		if opts.RetryWait > 0 {
			rc.RetryWaitMin = opts.RetryWait
			rc.RetryWaitMax = opts.RetryWait
		}
		if opts.HTTPClient != nil {
			rc.HTTPClient = opts.HTTPClient
		}
		if t, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
			t.ResponseHeaderTimeout = timeout
		}
		return rc
	}

	c := &HTTPClient{
		baseURL: base,
		user:    opts.User,
		timeout: timeout,
		http:    newRetrying(retryablehttp.DefaultRetryPolicy),
		once:    newRetrying(retryBeforeSend),
		log:     log.Named("bridge"),
	}
	if opts.Password != "" {
		c.passHash = HashPassword(opts.Password)
	}
	return c
}

// retryBeforeSend retries only failures where the request never reached the
// bridge, so a create or store that succeeded is never repeated.
func retryBeforeSend(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		return false, nil
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// do sends req with the retry policy that is safe for its method.
func (c *HTTPClient) do(req *retryablehttp.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return c.http.Do(req)
	default:
		return c.once.Do(req)
	}
}

// BaseURL returns the bridge endpoint the client talks to.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body interface{}) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.passHash)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *HTTPClient) jsonBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return data, nil
}

// call runs a JSON round trip bounded by the client timeout.
func (c *HTTPClient) call(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body interface{}
	if in != nil {
		data, err := c.jsonBody(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("request", zap.String("op", op), zap.String("method", method), zap.String("path", path))
	resp, err := c.do(req)
	if err != nil {
		return kerrors.Transport(op, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(op, resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return kerrors.Transport(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// checkResponse maps non-2xx answers onto the error taxonomy.
func checkResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w: %s", op, kerrors.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, kerrors.ErrInvalidToken, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w: %s", op, kerrors.ErrRemoteNotFound, msg)
	default:
		return kerrors.Transport(op, fmt.Errorf("bridge returned %d: %s", resp.StatusCode, msg))
	}
}

func bucketPath(bucketID string, rest ...string) string {
	p := "/buckets/" + url.PathEscape(bucketID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *HTTPClient) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var buckets []Bucket
	if err := c.call(ctx, "list buckets", http.MethodGet, "/buckets", nil, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (c *HTTPClient) CreateBucket(ctx context.Context, info BucketInfo) (*Bucket, error) {
	var b Bucket
	if err := c.call(ctx, "create bucket", http.MethodPost, "/buckets", info, &b); err != nil {
		return nil, err
	}
	c.log.Info("bucket created", zap.String("id", b.ID), zap.String("name", b.Name))
	return &b, nil
}

func (c *HTTPClient) DeleteBucket(ctx context.Context, bucketID string) error {
	return c.call(ctx, "delete bucket", http.MethodDelete, bucketPath(bucketID), nil, nil)
}

func (c *HTTPClient) ListFilesInBucket(ctx context.Context, bucketID string) ([]File, error) {
	var files []File
	if err := c.call(ctx, "list files", http.MethodGet, bucketPath(bucketID, "files"), nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return c.call(ctx, "delete file", http.MethodDelete, bucketPath(bucketID, "files", fileID), nil, nil)
}

func (c *HTTPClient) CreateToken(ctx context.Context, bucketID string, op Operation) (*Token, error) {
	var tok Token
	if err := c.call(ctx, "create token", http.MethodPost, bucketPath(bucketID, "tokens"), tokenRequest{Operation: op}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// StoreFileInBucket streams localPath to the bridge. The body is re-read from
// the start on retries, so localPath must stay unchanged during the call.
func (c *HTTPClient) StoreFileInBucket(ctx context.Context, bucketID, token, localPath string, meta FileMeta) (*File, error) {
	const op = "store file"

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, bucketPath(bucketID, "files"), f)
	if err != nil {
		return nil, err
	}
	req.ContentLength = info.Size()
	req.Header.Set(HeaderToken, token)
	req.Header.Set(HeaderFilename, url.PathEscape(meta.Filename))
	contentType := meta.Mimetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Debug("storing file", zap.String("bucket", bucketID), zap.String("filename", meta.Filename), zap.Int64("size", info.Size()))
	resp, err := c.do(req)
	if err != nil {
		return nil, kerrors.Transport(op, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(op, resp); err != nil {
		return nil, err
	}

	var stored File
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return nil, kerrors.Transport(op, fmt.Errorf("decoding response: %w", err))
	}
	c.log.Info("file stored", zap.String("bucket", bucketID), zap.String("id", stored.ID))
	return &stored, nil
}

func (c *HTTPClient) CreateFileStream(ctx context.Context, bucketID, fileID string) (io.ReadCloser, error) {
	const op = "open file stream"

	tok, err := c.CreateToken(ctx, bucketID, OperationPull)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, bucketPath(bucketID, "files", fileID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderToken, tok.Token)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return nil, kerrors.Transport(op, err)
	}
	if err := checkResponse(op, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// leveledLogger adapts zap to retryablehttp's LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
