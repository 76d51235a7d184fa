package registry

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/pod"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Containers is the layout of the registry on the subject's storage: the
// three record containers plus the inbox inbound requests arrive in.
type Containers struct {
	// Storage is the storage root the containers live under.
	Storage string
	// Inbox receives inbound access requests.
	Inbox string
	// DataAuthorization holds data authorization records.
	DataAuthorization string
	// AccessAuthorization holds access authorization records.
	AccessAuthorization string
	// AccessReceipt holds access receipt records.
	AccessReceipt string
}

// Well-known container paths under the storage root. Discovery via type
// indexes or data registries would supersede these; the fixed layout is the
// simple starting point.
const (
	authzPath               = "/authz/"
	dataAuthorizationPath   = "/authz/data/"
	accessAuthorizationPath = "/authz/access/"
	accessReceiptPath       = "/authz/receipts/"
)

// Discover resolves the container layout for the given WebID: the storage
// root via space:storage and the inbox via ldp:inbox, first value wins,
// record containers at their well-known paths under the storage root.
func Discover(ctx context.Context, store graph.Store, webID string) (Containers, error) {
	var c Containers
	storage, err := store.FetchStatements(ctx, webID, rdf.Space("storage"))
	if err != nil {
		return c, errors.Wrapf(err, "[registry] - resolving storage for %s", webID)
	}
	if len(storage) == 0 {
		return c, errors.Newf("[registry] - no storage advertised by %s", webID)
	}
	c.Storage = storage[0].Object
	inbox, err := store.FetchStatements(ctx, webID, rdf.LDP("inbox"))
	if err != nil {
		return c, errors.Wrapf(err, "[registry] - resolving inbox for %s", webID)
	}
	if len(inbox) > 0 {
		c.Inbox = inbox[0].Object
	}
	return Layout(c.Storage, c.Inbox)
}

// Layout builds the container layout from an explicitly known storage root
// and inbox, placing the record containers at their well-known paths.
func Layout(storage, inbox string) (Containers, error) {
	c := Containers{Storage: storage, Inbox: inbox}
	var err error
	for path, into := range map[string]*string{
		dataAuthorizationPath:   &c.DataAuthorization,
		accessAuthorizationPath: &c.AccessAuthorization,
		accessReceiptPath:       &c.AccessReceipt,
	} {
		if *into, err = pod.Resolve(storage, path); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Provision PUTs the registry containers under the storage root. Idempotent
// and best-effort: a server that already has them (or refuses empty PUTs)
// does not block startup, failures are only logged.
func Provision(
	ctx context.Context, client pod.Client, c Containers, logger *zap.Logger,
) {
	paths := []string{authzPath, dataAuthorizationPath, accessAuthorizationPath, accessReceiptPath}
	for _, path := range paths {
		uri, err := pod.Resolve(c.Storage, path)
		if err == nil {
			err = client.Put(ctx, uri, "")
		}
		if err != nil {
			logger.Warn("container provisioning", zap.String("path", path), zap.Error(err))
		}
	}
}
