package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/vk/deskshell/internal/ctxlog"
	"golang.org/x/mod/semver"
)

// maxManifestSize bounds the update manifest body.
const maxManifestSize = 1 << 20

// Result is the outcome of updater.check.
type Result struct {
	Available      bool   `json:"available"`
	CurrentVersion string `json:"current_version"`
	Version        string `json:"version,omitempty"`
	Notes          string `json:"notes,omitempty"`
	PubDate        string `json:"pub_date,omitempty"`
	URL            string `json:"url,omitempty"`
	Signature      string `json:"signature,omitempty"`
}

type checker struct {
	client    *http.Client
	target    string
	current   string
	endpoints []string
	timeout   time.Duration
}

// check queries each endpoint in order and returns the first answer.
func (c *checker) check(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, ep := range c.endpoints {
		url := expandEndpoint(ep, c.target, c.current)
		res, err := c.fetch(ctx, url)
		if err != nil {
			logger.Debug("Update endpoint failed.", "url", url, "error", err)
			errs = append(errs, err)
			continue
		}
		return res, nil
	}
	return nil, fmt.Errorf("all update endpoints failed: %w", errors.Join(errs...))
}

func (c *checker) fetch(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create update request for '%s': %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch '%s': %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return &Result{CurrentVersion: c.current}, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("update endpoint '%s' responded with status: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read update manifest from '%s': %w", url, err)
	}
	return parseManifest(body, c.target, c.current)
}

// parseManifest reads a release manifest of the form
//
//	{"version": "1.2.0", "notes": "...", "pub_date": "...",
//	 "platforms": {"linux-x86_64": {"url": "...", "signature": "..."}}}
//
// A manifest without "platforms" may carry "url" and "signature" at the
// top level.
func parseManifest(body []byte, target, current string) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("update manifest is not valid JSON")
	}
	doc := gjson.ParseBytes(body)

	remote := doc.Get("version").String()
	if remote == "" {
		return nil, errors.New("update manifest has no version")
	}
	rv, cv := canonical(remote), canonical(current)
	if !semver.IsValid(rv) {
		return nil, fmt.Errorf("update manifest version '%s' is not a semantic version", remote)
	}

	res := &Result{CurrentVersion: current}
	if semver.Compare(rv, cv) <= 0 {
		return res, nil
	}

	artifact := doc
	if platforms := doc.Get("platforms"); platforms.Exists() {
		artifact = platforms.Get(gjson.Escape(target))
		if !artifact.Exists() {
			return nil, fmt.Errorf("update %s has no artifact for target '%s'", remote, target)
		}
	}
	url := artifact.Get("url").String()
	if url == "" {
		return nil, fmt.Errorf("update %s has no url for target '%s'", remote, target)
	}

	res.Available = true
	res.Version = strings.TrimPrefix(remote, "v")
	res.Notes = doc.Get("notes").String()
	res.PubDate = doc.Get("pub_date").String()
	res.URL = url
	res.Signature = artifact.Get("signature").String()
	return res, nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
