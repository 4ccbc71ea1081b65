package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
)

// TokenCookie is the cookie the backend reads its session from.
const TokenCookie = "token"

// Client talks to the marketplace REST backend. Every request carries the
// stored auth token as a cookie, plus whatever cookies the backend has set.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *logger.Component
}

func NewClient(baseURL string, timeout time.Duration, token func() string) *Client {
	jar, _ := cookiejar.New(nil)
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar},
		token:   token,
		log:     logger.With("backend"),
	}
}

type statusBody struct {
	Success *bool           `json:"success"`
	Result  *bool           `json:"result"`
	Message json.RawMessage `json:"message"`
}

func (b statusBody) text() string {
	var s string
	if len(b.Message) > 0 && json.Unmarshal(b.Message, &s) == nil {
		return s
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Internal("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	}
	return req, nil
}

// do executes req and returns the raw body of a 2xx response. Non-2xx statuses
// and success=false bodies come back as AppErrors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("%s %s failed: %v", req.Method, req.URL.Path, err)
		return nil, errors.Transport("failed to reach the server", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Transport("failed to read response", err)
	}

	var status statusBody
	// Bodies that are not JSON objects simply carry no status fields.
	_ = json.Unmarshal(body, &status)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Unauthorized(orDefault(status.text(), "login required"), nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound(req.URL.Path, nil)
	case resp.StatusCode >= 500:
		c.log.Error("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
		return nil, errors.Transport(fmt.Sprintf("server error (%d)", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, errors.Application(orDefault(status.text(), http.StatusText(resp.StatusCode)))
	}

	if (status.Success != nil && !*status.Success) || (status.Result != nil && !*status.Result) {
		return nil, errors.Application(orDefault(status.text(), "request was not successful"))
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Internal("failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, nil, reader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// formFile is one file part of a multipart request.
type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, files []formFile, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, quoteEscaper.Replace(f.name)))
		header.Set("Content-Type", orDefault(f.contentType, "application/octet-stream"))
		part, err := w.CreatePart(header)
		if err != nil {
			return errors.Internal("failed to build upload", err)
		}
		if _, err := part.Write(f.data); err != nil {
			return errors.Internal("failed to build upload", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return errors.Internal("failed to build upload", err)
		}
	}
	if err := w.Close(); err != nil {
		return errors.Internal("failed to build upload", err)
	}

	req, err := c.newRequest(ctx, method, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return err
	}
	return decode(body, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func decode(body []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Transport("unexpected response format", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
