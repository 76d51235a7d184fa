// Package registry builds and persists the interoperable authorization
// records: data authorizations, access authorizations, and access receipts.
// Drafts are plain value objects with no identity; persisting one mints a
// fresh fragment identifier and returns the record's absolute URI. Records
// are never updated in place: correction is a new record plus a replaces
// reference.
package registry

import (
	"context"
	"time"

	"github.com/arya-analytics/aegis/pkg/pod"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DataAuthorizationDraft is the write draft of a data authorization.
type DataAuthorizationDraft struct {
	Grantees            []string
	AccessModes         []string
	DataInstances       []string
	SatisfiesAccessNeed string
	// EnforcedByRules back-references the access-control rules installed
	// for this authorization.
	EnforcedByRules []string
}

// AccessAuthorizationDraft is the write draft of an access authorization.
type AccessAuthorizationDraft struct {
	AccessNeedGroup    string
	DataAuthorizations []string
}

// AccessReceiptDraft is the write draft of an access receipt. GrantedAt is
// stamped at creation time, not carried on the draft.
type AccessReceiptDraft struct {
	Grantees      []string
	GrantedBy     string
	Purposes      []string
	SeeAlso       []string
	AccessRequest string
	// AccessAuthorizations is empty on decline and revoke receipts.
	AccessAuthorizations []string
	// Replaces chains this receipt to the one it supersedes. Set only on
	// revoke receipts.
	Replaces string
}

// Recorder persists registry records into their target containers.
type Recorder interface {
	CreateDataAuthorization(
		ctx context.Context, container string, draft DataAuthorizationDraft,
	) (string, error)
	CreateAccessAuthorization(
		ctx context.Context, container string, draft AccessAuthorizationDraft,
	) (string, error)
	CreateAccessReceipt(
		ctx context.Context, container string, draft AccessReceiptDraft,
	) (string, error)
}

type Config struct {
	// Pod persists the record documents.
	Pod pod.Client
	// Logger is the logger used by the recorder.
	Logger *zap.Logger
}

type recorder struct{ cfg Config }

func New(cfg Config) Recorder {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &recorder{cfg: cfg}
}

func (r *recorder) CreateDataAuthorization(
	ctx context.Context, container string, draft DataAuthorizationDraft,
) (string, error) {
	subject := "#data-authorization-" + uuid.NewString()
	doc := rdf.Describe(subject).
		Add(rdf.Type, rdf.IRI(rdf.Interop("DataAuthorization"))).
		Add(rdf.Interop("grantee"), rdf.IRIs(draft.Grantees)...).
		Add(rdf.Interop("accessMode"), rdf.IRIs(draft.AccessModes)...).
		Add(rdf.Interop("hasDataInstance"), rdf.IRIs(draft.DataInstances)...).
		Add(rdf.RDFS("seeAlso"), rdf.IRIs(draft.EnforcedByRules)...).
		Add(rdf.Interop("satisfiesAccessNeed"), rdf.IRI(draft.SatisfiesAccessNeed))
	return r.create(ctx, container, subject, doc)
}

func (r *recorder) CreateAccessAuthorization(
	ctx context.Context, container string, draft AccessAuthorizationDraft,
) (string, error) {
	subject := "#access-authorization-" + uuid.NewString()
	doc := rdf.Describe(subject).
		Add(rdf.Type, rdf.IRI(rdf.Interop("AccessAuthorization"))).
		Add(rdf.Interop("hasAccessNeedGroup"), rdf.IRI(draft.AccessNeedGroup)).
		Add(rdf.Interop("hasDataAuthorization"), rdf.IRIs(draft.DataAuthorizations)...)
	return r.create(ctx, container, subject, doc)
}

func (r *recorder) CreateAccessReceipt(
	ctx context.Context, container string, draft AccessReceiptDraft,
) (string, error) {
	subject := "#access-receipt-" + uuid.NewString()
	grantedAt := time.Now().UTC().Format(time.RFC3339)
	doc := rdf.Describe(subject).
		Add(rdf.Type, rdf.IRI(rdf.Interop("AccessReceipt"))).
		Add(rdf.Interop("grantedBy"), rdf.IRI(draft.GrantedBy)).
		Add(rdf.Interop("grantee"), rdf.IRIs(draft.Grantees)...).
		Add(rdf.Interop("grantedAt"), rdf.TypedLiteral(grantedAt, rdf.XSD("dateTime"))).
		Add(rdf.DPV("purpose"), rdf.Nodes(draft.Purposes)...).
		Add(rdf.RDFS("seeAlso"), rdf.Nodes(draft.SeeAlso)...)
	if draft.Replaces != "" {
		doc.Add(rdf.Interop("replaces"), rdf.IRI(draft.Replaces))
	}
	doc.Add(rdf.Interop("hasAccessRequest"), rdf.IRI(draft.AccessRequest)).
		Add(rdf.Interop("hasAccessAuthorization"), rdf.IRIs(draft.AccessAuthorizations)...)
	return r.create(ctx, container, subject, doc)
}

func (r *recorder) create(
	ctx context.Context, container, subject string, doc *rdf.Description,
) (string, error) {
	location, err := r.cfg.Pod.Create(ctx, container, rdf.Document(doc))
	if err != nil {
		return "", errors.Wrapf(err, "[registry] - creating record in %s", container)
	}
	uri, err := pod.Resolve(location, subject)
	if err != nil {
		return "", err
	}
	r.cfg.Logger.Debug("recorded", zap.String("uri", uri))
	return uri, nil
}
