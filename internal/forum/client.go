package forum

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/netx"
	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrNotFound   = errors.New("forum: not found")
	ErrBadRequest = errors.New("forum: bad request")
	ErrForbidden  = errors.New("forum: forbidden")
	ErrServer     = errors.New("forum: server error")
)

type Post struct {
	Number      int64  `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Image is an attachment posted along with a comment.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type Config struct {
	BaseURL  string
	BotUser  string
	Secret   []byte
	TokenTTL time.Duration
}

type Client struct {
	cfg    Config
	base   *url.URL
	http   *retryablehttp.Client
	logger logging.Logger
}

func NewClient(cfg Config, http *retryablehttp.Client, logger logging.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing forum url: %w", err)
	}
	if base.Scheme == "" {
		base.Scheme = "http"
	}
	return &Client{cfg: cfg, base: base, http: http, logger: logger}, nil
}

// BotUser is the author name of the comments this client posts.
func (c *Client) BotUser() string {
	return c.cfg.BotUser
}

func (c *Client) GetPost(ctx context.Context, number int64) (*Post, error) {
	var p Post
	if err := c.req(ctx, http.MethodGet, c.postPath(number), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("getting post %d: %w", number, err)
	}
	return &p, nil
}

// ListComments returns up to count comments of the post.
func (c *Client) ListComments(ctx context.Context, number int64, count int) ([]Comment, error) {
	q := url.Values{"count": []string{strconv.Itoa(count)}}
	var res struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.req(ctx, http.MethodGet, c.postPath(number, "comments"), q, nil, &res); err != nil {
		return nil, fmt.Errorf("listing comments of post %d: %w", number, err)
	}
	if res.Comments == nil {
		return nil, fmt.Errorf("listing comments of post %d: %w: no comments field", number, common.ErrMalformedResponse)
	}
	return res.Comments, nil
}

type imagePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type commentPayload struct {
	Content string         `json:"content"`
	Images  []imagePayload `json:"images,omitempty"`
}

// PostComment publishes a comment and returns its remote id.
func (c *Client) PostComment(ctx context.Context, number int64, content string, images []Image) (int64, error) {
	payload := commentPayload{Content: content}
	for _, img := range images {
		payload.Images = append(payload.Images, imagePayload{
			Name:        img.Name,
			ContentType: img.ContentType,
			Data:        base64.StdEncoding.EncodeToString(img.Data),
		})
	}

	var res struct {
		ID int64 `json:"id"`
	}
	if err := c.req(ctx, http.MethodPost, c.postPath(number, "comments"), nil, payload, &res); err != nil {
		return 0, fmt.Errorf("posting comment to post %d: %w", number, err)
	}
	if res.ID == 0 {
		return 0, fmt.Errorf("posting comment to post %d: %w: missing id", number, common.ErrMalformedResponse)
	}
	return res.ID, nil
}

func (c *Client) UpdateComment(ctx context.Context, number, id int64, content string) error {
	path := c.postPath(number, "comments", strconv.FormatInt(id, 10))
	if err := c.req(ctx, http.MethodPatch, path, nil, commentPayload{Content: content}, nil); err != nil {
		return fmt.Errorf("updating comment %d: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteComment(ctx context.Context, number, id int64) error {
	path := c.postPath(number, "comments", strconv.FormatInt(id, 10))
	if err := c.req(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	return nil
}

func (c *Client) EditPost(ctx context.Context, number int64, title, description string) error {
	payload := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}{title, description}
	if err := c.req(ctx, http.MethodPatch, c.postPath(number), nil, payload, nil); err != nil {
		return fmt.Errorf("editing post %d: %w", number, err)
	}
	return nil
}

func (c *Client) postPath(number int64, rest ...string) string {
	return c.base.JoinPath(append([]string{"api", "posts", strconv.FormatInt(number, 10)}, rest...)...).String()
}

func (c *Client) req(ctx context.Context, method, target string, query url.Values, reqBody, resBody any) error {
	var body []byte
	if reqBody != nil {
		var err error
		if body, err = json.Marshal(reqBody); err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rb any
	if body != nil {
		rb = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, rb)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := GenerateToken(c.cfg.BotUser, c.cfg.Secret, c.cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrForumUnavailable, err)
	}
	data, err := netx.ReadBody(res)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrForumUnavailable, err)
	}

	if res.StatusCode >= 300 {
		c.logger.Debug(ctx, "forum request failed", "method", method, "url", target, "status", res.Status, "body", string(data))
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, res.Status)
	case res.StatusCode == http.StatusBadRequest, res.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s: %s", ErrBadRequest, res.Status, string(data))
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, res.Status)
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrServer, res.Status)
	default:
		return fmt.Errorf("unexpected status %s", res.Status)
	}

	if resBody != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return fmt.Errorf("%w: empty body", common.ErrMalformedResponse)
		}
		if err := json.Unmarshal(data, resBody); err != nil {
			return fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
		}
	}
	return nil
}
