// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package confluence is a minimal client for the Confluence REST content
// API: page lookup by title, page body replacement, and attachment lookup
// and upload.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/confluence-markdown/internal/httputil"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// Client talks to one Confluence instance with fixed credentials.
type Client struct {
	// BaseURL is the instance root, e.g. "https://example.atlassian.net/wiki".
	BaseURL string

	HTTP       *http.Client
	Auth       types.Credentials
	UserAgent  string
	MaxRetries int

	// Log receives rate-limit notices; nil discards them.
	Log io.Writer
}

// New creates a client from the loaded configuration.
func New(cfg types.Config, log io.Writer) *Client {
	return &Client{
		BaseURL:    cfg.URL,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		Auth:       cfg.Auth,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Log:        log,
	}
}

// Attachment returns the first attachment of contentID whose title equals
// name. It returns ErrAttachmentNotFound when none matches or when the
// content itself does not exist.
func (c *Client) Attachment(ctx context.Context, contentID, name string) (*types.Attachment, error) {
	endpoint := fmt.Sprintf("%s/rest/api/content/%s/child/attachment?%s",
		c.BaseURL, url.PathEscape(contentID), url.Values{
			"expand":   {"children.attachment"},
			"filename": {name},
		}.Encode())

	var list attachmentList
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s on content %s (no such content)", ErrAttachmentNotFound, name, contentID)
		}
		return nil, fmt.Errorf("listing attachments of %s: %w", contentID, err)
	}

	for _, a := range list.Results {
		if a.Title == name {
			return &types.Attachment{
				ID:           a.ID,
				Title:        a.Title,
				Comment:      a.Metadata.Comment,
				DownloadPath: a.Links.Download,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on content %s", ErrAttachmentNotFound, name, contentID)
}

// Page resolves title to exactly one page and fetches its editor body and
// version. Zero matches yield ErrPageNotFound and several ErrPageNotUnique.
func (c *Client) Page(ctx context.Context, title string) (*types.Page, error) {
	selfURL, err := c.findPage(ctx, title)
	if err != nil {
		return nil, err
	}

	endpoint := selfURL + "?" + url.Values{"expand": {"body.editor,version"}}.Encode()
	var pc pageContent
	if err := c.getJSON(ctx, endpoint, &pc); err != nil {
		return nil, fmt.Errorf("fetching page %q: %w", title, err)
	}

	return &types.Page{
		ID:      pc.ID,
		Title:   pc.Title,
		Body:    pc.Body.Editor.Value,
		Version: pc.Version.Number,
		SelfURL: selfURL,
	}, nil
}

// UploadPage replaces the body of the page titled title with html, bumping
// the version by one. The page is re-resolved by title first, so the same
// uniqueness contract as Page applies. A concurrent edit between the
// version read and the update is not detected beyond what the server
// reports.
func (c *Client) UploadPage(ctx context.Context, title, html string) error {
	page, err := c.Page(ctx, title)
	if err != nil {
		return err
	}

	payload := pageUpdate{
		Title:   page.Title,
		Type:    "page",
		Version: versionRef{Number: page.Version + 1},
	}
	payload.Body.Editor = bodyValue{Value: html, Representation: "editor"}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding page update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, page.SelfURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("updating page %q to version %d: %w", title, payload.Version.Number, err)
	}
	return nil
}

// UploadAttachment uploads data as filename to contentID's attachments,
// with comment stored in the attachment metadata. Confluence replaces an
// existing attachment of the same name with a new version.
func (c *Client) UploadAttachment(ctx context.Context, contentID, filename string, data []byte, comment string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("comment", comment); err != nil {
		return fmt.Errorf("writing comment field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("creating file field: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing file field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/api/content/%s/child/attachment", c.BaseURL, url.PathEscape(contentID))
	req, err := c.newRequest(ctx, http.MethodPut, endpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	// Confluence rejects non-browser attachment uploads without this.
	req.Header.Set("X-Atlassian-Token", "nocheck")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("uploading attachment %s to %s: %w", filename, contentID, err)
	}
	return nil
}

// attachmentsPath is the path, below the instance root, under which
// attachments are served as <content id>/<file name>.
const attachmentsPath = "download/attachments"

// AttachmentURL is the download URL an attachment named filename has on
// contentID once uploaded to the instance at baseURL.
func AttachmentURL(baseURL, contentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimSuffix(baseURL, "/"), attachmentsPath, contentID, filename)
}

// SplitAttachmentPath returns the content id and file name of an attachment
// download path. Only paths ending in "download/attachments/<id>/<name>"
// with an all-digit id qualify; ok is false for anything else, such as the
// icons and emoticons Confluence serves from its own static paths.
func SplitAttachmentPath(p string) (contentID, name string, ok bool) {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	n := len(segs)
	if n < 4 || segs[n-4]+"/"+segs[n-3] != attachmentsPath {
		return "", "", false
	}
	contentID, name = segs[n-2], segs[n-1]
	if contentID == "" || strings.Trim(contentID, "0123456789") != "" || name == "" {
		return "", "", false
	}
	return contentID, name, true
}

// findPage searches pages by exact title and returns the self link of the
// single match.
func (c *Client) findPage(ctx context.Context, title string) (string, error) {
	endpoint := c.BaseURL + "/rest/api/content?" + url.Values{
		"type":  {"page"},
		"title": {title},
	}.Encode()

	var list contentList
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		return "", fmt.Errorf("searching page %q: %w", title, err)
	}

	switch n := len(list.Results); {
	case n == 0:
		return "", fmt.Errorf("%w: %q", ErrPageNotFound, title)
	case n > 1:
		return "", fmt.Errorf("%w: %q matched %d pages", ErrPageNotUnique, title, n)
	}

	self := list.Results[0].Links.Self
	if self == "" {
		return "", fmt.Errorf("page %q has no self link", title)
	}
	return self, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.Auth.User, c.Auth.Token)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

// do sends req and decodes a 2xx JSON response into v (when non-nil).
// Other statuses become *APIError.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := httputil.DoWithRetry(req.Context(), c.HTTP, req, c.MaxRetries, c.Log)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method: req.Method,
			Path:   req.URL.Path,
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(body)),
		}
	}

	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", req.URL.Path, err)
	}
	return nil
}
