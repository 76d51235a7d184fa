package pod

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Client performs the low-level resource operations against a pod server.
// Everything above this interface speaks documents and URIs; everything
// below it is HTTP.
type Client interface {
	// Create POSTs a new resource into the given container and returns the
	// absolute URI of the created resource.
	Create(ctx context.Context, container, body string) (string, error)
	// Patch applies an N3 patch to the resource at the given URI.
	Patch(ctx context.Context, uri, body string) error
	// Put creates or replaces the resource at the given URI. A URI ending in
	// a slash provisions a container.
	Put(ctx context.Context, uri, body string) error
	// Get fetches the representation of the resource at the given URI.
	Get(ctx context.Context, uri string) (string, error)
	// ACLResourceURI resolves the URI of the access-control resource
	// governing the given resource, via the rel="acl" link relation.
	ACLResourceURI(ctx context.Context, resource string) (string, error)
}

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty return leaves requests unauthenticated.
type TokenSource interface {
	AccessToken() string
}

type Config struct {
	// HTTP is the underlying http client. Defaults to http.DefaultClient.
	HTTP *http.Client
	// Token supplies the bearer token for outgoing requests. Optional.
	Token TokenSource
	// Logger is the logger used by the client.
	Logger *zap.Logger
}

type client struct{ cfg Config }

// New opens a Client that speaks to pod servers over HTTP.
func New(cfg Config) Client {
	if cfg.HTTP == nil {
		cfg.HTTP = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &client{cfg: cfg}
}

const (
	contentTypeTurtle = "text/turtle"
	contentTypeN3     = "text/n3"
	acceptStatements  = "application/n-triples, text/turtle;q=0.5"
)

func (c *client) Create(ctx context.Context, container, body string) (string, error) {
	res, err := c.do(ctx, http.MethodPost, container, body, contentTypeTurtle)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		return "", statusErr(res, "create", container)
	}
	location := res.Header.Get("Location")
	if location == "" {
		return "", errors.Newf("[pod] - create of %s returned no location", container)
	}
	return Resolve(container, location)
}

func (c *client) Patch(ctx context.Context, uri, body string) error {
	res, err := c.do(ctx, http.MethodPatch, uri, body, contentTypeN3)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusErr(res, "patch", uri)
	}
	return nil
}

func (c *client) Put(ctx context.Context, uri, body string) error {
	res, err := c.do(ctx, http.MethodPut, uri, body, contentTypeTurtle)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusErr(res, "put", uri)
	}
	return nil
}

func (c *client) Get(ctx context.Context, uri string) (string, error) {
	res, err := c.do(ctx, http.MethodGet, uri, "", "")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", statusErr(res, "get", uri)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrapf(err, "[pod] - reading %s", uri)
	}
	return string(b), nil
}

func (c *client) ACLResourceURI(ctx context.Context, resource string) (string, error) {
	res, err := c.do(ctx, http.MethodHead, resource, "", "")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", statusErr(res, "head", resource)
	}
	ref, ok := linkRelation(res.Header.Values("Link"), "acl")
	if !ok {
		return "", errors.Newf("[pod] - no acl link for %s", resource)
	}
	return Resolve(resource, ref)
}

func (c *client) do(
	ctx context.Context,
	method, uri, body, contentType string,
) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[pod] - building %s %s", method, uri)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method == http.MethodGet {
		req.Header.Set("Accept", acceptStatements)
	}
	if c.cfg.Token != nil {
		if tk := c.cfg.Token.AccessToken(); tk != "" {
			req.Header.Set("Authorization", "Bearer "+tk)
		}
	}
	c.cfg.Logger.Debug("request", zap.String("method", method), zap.String("uri", uri))
	res, err := c.cfg.HTTP.Do(req)
	return res, errors.Wrapf(err, "[pod] - %s %s", method, uri)
}

func statusErr(res *http.Response, op, uri string) error {
	return errors.Newf("[pod] - %s of %s returned %s", op, uri, res.Status)
}

// linkRelation scans Link headers for the given rel and returns its target
// reference. Handles multiple comma-separated links per header value.
func linkRelation(headers []string, rel string) (string, bool) {
	for _, header := range headers {
		for _, link := range strings.Split(header, ",") {
			parts := strings.Split(link, ";")
			if len(parts) < 2 {
				continue
			}
			target := strings.TrimSpace(parts[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			for _, param := range parts[1:] {
				param = strings.TrimSpace(param)
				if param == `rel="`+rel+`"` || param == "rel="+rel {
					return strings.Trim(target, "<>"), true
				}
			}
		}
	}
	return "", false
}

// Resolve resolves a possibly relative reference against a base URI.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "[pod] - parsing %s", base)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "[pod] - parsing %s", ref)
	}
	return b.ResolveReference(r).String(), nil
}
