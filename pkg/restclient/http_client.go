package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// DefaultTimeout applies when HTTPConfig carries neither a client nor a timeout.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// HTTPConfig configures the REST client.
type HTTPConfig struct {
	BaseURL    string
	Session    datagrid.SessionContext
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logrus.Entry
}

// HTTPClient implements datagrid.Client against a JSON REST API.
type HTTPClient struct {
	baseURL string
	session datagrid.SessionContext
	client  *http.Client
	logger  *logrus.Entry
}

var _ datagrid.Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client rooted at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("restclient: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		session: cfg.Session,
		client:  httpClient,
		logger:  logger,
	}, nil
}

// List fetches one page. GET lists carry the query in the URL; POST lists send it as
// a JSON body with key[] parameters collapsed into arrays.
func (c *HTTPClient) List(ctx context.Context, req datagrid.ListRequest) ([]byte, error) {
	if req.Method == http.MethodPost {
		resp, err := c.do(ctx, http.MethodPost, req.Collection, "", listBody(req))
		if err != nil {
			return nil, err
		}
		return readBody(resp)
	}
	resp, err := c.do(ctx, http.MethodGet, req.Collection, req.Params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Get fetches a single record.
func (c *HTTPClient) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// Post sends payload as JSON.
func (c *HTTPClient) Post(ctx context.Context, path string, payload map[string]any) error {
	return c.send(ctx, http.MethodPost, path, payload)
}

// Put sends payload as JSON.
func (c *HTTPClient) Put(ctx context.Context, path string, payload map[string]any) error {
	return c.send(ctx, http.MethodPut, path, payload)
}

// Delete issues a DELETE without a body.
func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil)
}

// Export downloads a server-side export. The filename comes from Content-Disposition.
func (c *HTTPClient) Export(ctx context.Context, req datagrid.ListRequest) (datagrid.ExportFile, error) {
	method := http.MethodGet
	query := req.Params.Encode()
	var payload any
	if req.Method == http.MethodPost {
		method = http.MethodPost
		query = ""
		payload = listBody(req)
	}
	resp, err := c.do(ctx, method, req.Collection, query, payload)
	if err != nil {
		return datagrid.ExportFile{}, err
	}
	disposition := resp.Header.Get("Content-Disposition")
	contentType := resp.Header.Get("Content-Type")
	data, err := readBody(resp)
	if err != nil {
		return datagrid.ExportFile{}, err
	}
	return datagrid.ExportFile{
		Name:        datagrid.ExportFilename(disposition),
		ContentType: contentType,
		Data:        data,
		Source:      datagrid.ExportSourceServer,
	}, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload map[string]any) error {
	var body any
	if payload != nil {
		body = payload
	}
	resp, err := c.do(ctx, method, path, "", body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do performs the request and converts non-2xx responses into *datagrid.RemoteError.
// On success the caller owns resp.Body.
func (c *HTTPClient) do(ctx context.Context, method, path, query string, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("restclient: encode payload: %w", err)
		}
		reader = bytes.NewReader(body)
	}
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if query != "" {
		target += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("restclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.session != nil {
		if token, ok := c.session.Token(); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
		"elapsed":    time.Since(started).String(),
	})
	if err != nil {
		log.WithError(err).Debug("restclient: request failed")
		return nil, fmt.Errorf("restclient: http request: %w", err)
	}
	log.WithField("status", resp.StatusCode).Debug("restclient: response")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &datagrid.RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return resp, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("restclient: read response: %w", err)
	}
	return data, nil
}

// errorMessage pulls a user-facing message out of an error body. JSON bodies are
// checked for message, then error; short plain-text bodies are used as-is.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		for _, key := range []string{"message", "error"} {
			switch v := doc[key].(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					return v
				}
			case map[string]any:
				if msg, ok := v["message"].(string); ok && msg != "" {
					return msg
				}
			}
		}
		return ""
	}
	if len(raw) > 200 || bytes.HasPrefix(raw, []byte("<")) {
		return ""
	}
	return string(raw)
}

func listBody(req datagrid.ListRequest) map[string]any {
	body := make(map[string]any, len(req.Params))
	for key, values := range req.Params {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasSuffix(key, "[]"):
			body[strings.TrimSuffix(key, "[]")] = append([]string(nil), values...)
		case key == "page" || key == "per_page" || key == "export":
			body[key] = cast.ToInt(values[0])
		default:
			body[key] = values[0]
		}
	}
	return body
}
