package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
)

type Client struct {
	baseURL        string
	http           *http.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration

	mu    sync.RWMutex
	token string
}

// New returns a client for the server at baseURL (e.g. "http://127.0.0.1:8080").
// requestTimeout bounds ordinary calls, uploadTimeout bounds Upload.
func New(baseURL string, requestTimeout, uploadTimeout time.Duration) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ClearToken() { c.SetToken("") }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type credentials struct {
	UserName string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, username, email string, password []byte) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/register", credentials{UserName: username, Email: email, Password: string(password)})
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, username string, password []byte) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", credentials{UserName: username, Password: string(password)})
}

func (c *Client) authenticate(ctx context.Context, path string, creds credentials) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(body)

	var s Session
	if err := c.do(ctx, c.requestTimeout, http.MethodPost, path, "application/json", bytes.NewReader(body), &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, "/api/users/me", "", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upload streams the file as multipart/form-data to POST /api/videos.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*Video, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(req.FileName)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, req, contentType))
	}()

	var v Video
	err := c.do(ctx, c.uploadTimeout, http.MethodPost, "/api/videos", mw.FormDataContentType(), pr, &v)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest, contentType string) error {
	if err := mw.WriteField("title", req.Title); err != nil {
		return err
	}
	if err := mw.WriteField("description", req.Description); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(req.FileName)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Body); err != nil {
		return err
	}
	return mw.Close()
}

// videoTypes covers containers that are often missing from the system
// MIME table.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// ContentTypeFor guesses the MIME type from the file extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type videoList struct {
	Videos []Video `json:"videos"`
}

// ListVideos returns the newest videos of all users. Zero limit means the
// server default.
func (c *Client) ListVideos(ctx context.Context, limit, offset int) ([]Video, error) {
	return c.list(ctx, "/api/videos", limit, offset)
}

func (c *Client) ListUserVideos(ctx context.Context, userID string, limit, offset int) ([]Video, error) {
	return c.list(ctx, "/api/users/"+url.PathEscape(userID)+"/videos", limit, offset)
}

func (c *Client) list(ctx context.Context, path string, limit, offset int) ([]Video, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var l videoList
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, path, "", nil, &l); err != nil {
		return nil, err
	}
	return l.Videos, nil
}

func (c *Client) GetVideo(ctx context.Context, id string) (*Video, error) {
	var v Video
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, "/api/videos/"+url.PathEscape(id), "", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Ping reports ErrUnavailable unless /healthz answers 200.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, c.requestTimeout, http.MethodGet, "/healthz", "", nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", ErrUnavailable, apiErr.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path, contentType string, body io.Reader, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
