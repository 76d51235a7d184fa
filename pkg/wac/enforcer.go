// Package wac installs, rolls back, and revokes Web Access Control rules on
// the documents governing protected resources. Enforcement correctness is
// safety-critical: failures here are always surfaced to the transaction
// that drives them, never absorbed.
package wac

import (
	"context"
	"strings"

	"github.com/arya-analytics/aegis/pkg/pod"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrACLNotFound is returned when no access-control resource is
	// resolvable for the target resource.
	ErrACLNotFound = errors.New("[wac] - no acl resource found")
	// ErrPatchRejected is returned when the remote server refuses an
	// access-control mutation.
	ErrPatchRejected = errors.New("[wac] - acl patch rejected")
)

// Enforcer mutates the access-control rules of protected resources.
type Enforcer interface {
	// Grant installs a rule granting the grantees the given modes on the
	// resource, marked inheritable when isDefault is set. Returns the URI
	// of the installed rule.
	Grant(
		ctx context.Context,
		grantees []string,
		resource string,
		isDefault bool,
		modes []string,
	) (string, error)
	// Rollback deletes exactly the statements the matching Grant inserted.
	// Only used to undo a rule created earlier in the same transaction.
	Rollback(
		ctx context.Context,
		ruleURI string,
		grantees []string,
		resource string,
		isDefault bool,
		modes []string,
	) error
	// Revoke deletes a previously recorded rule by URI. The rule's resource
	// is bound by a where match, so callers need only the rule URI,
	// grantees, and modes.
	Revoke(
		ctx context.Context,
		ruleURI string,
		grantees []string,
		isDefault bool,
		modes []string,
	) error
}

// IdentitySource supplies the acting identity whose owner rule every grant
// re-asserts.
type IdentitySource interface {
	WebID() (string, bool)
}

type Config struct {
	// Pod locates acl resources and applies patches.
	Pod pod.Client
	// Identity supplies the acting identity.
	Identity IdentitySource
	// Logger is the logger used by the enforcer.
	Logger *zap.Logger
}

type enforcer struct{ cfg Config }

func New(cfg Config) Enforcer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &enforcer{cfg: cfg}
}

func (e *enforcer) Grant(
	ctx context.Context,
	grantees []string,
	resource string,
	isDefault bool,
	modes []string,
) (string, error) {
	owner, ok := e.cfg.Identity.WebID()
	if !ok {
		return "", errors.New("[wac] - no acting identity")
	}
	aclURI, err := e.aclURI(ctx, resource)
	if err != nil {
		return "", err
	}
	subject := "#grant-" + uuid.NewString()
	// Re-assert the owner rule on every grant. Servers synthesize no acl
	// document until one is written; omitting this on the first write
	// would lock the owner out of the resource.
	patch := rdf.NewPatch().
		Insert(ownerRule(owner, resource)).
		Insert(rule(subject, grantees, resource, isDefault, modes))
	if err := e.cfg.Pod.Patch(ctx, aclURI, patch.Body()); err != nil {
		return "", errors.Mark(err, ErrPatchRejected)
	}
	ruleURI, err := pod.Resolve(aclURI, subject)
	if err != nil {
		return "", err
	}
	e.cfg.Logger.Debug(
		"granted",
		zap.String("resource", resource),
		zap.String("rule", ruleURI),
	)
	return ruleURI, nil
}

func (e *enforcer) Rollback(
	ctx context.Context,
	ruleURI string,
	grantees []string,
	resource string,
	isDefault bool,
	modes []string,
) error {
	aclURI, err := e.aclURI(ctx, resource)
	if err != nil {
		return err
	}
	patch := rdf.NewPatch().
		Delete(rule(ruleURI, grantees, resource, isDefault, modes))
	if err := e.cfg.Pod.Patch(ctx, aclURI, patch.Body()); err != nil {
		return errors.Mark(err, ErrPatchRejected)
	}
	e.cfg.Logger.Debug(
		"rolled back",
		zap.String("resource", resource),
		zap.String("rule", ruleURI),
	)
	return nil
}

func (e *enforcer) Revoke(
	ctx context.Context,
	ruleURI string,
	grantees []string,
	isDefault bool,
	modes []string,
) error {
	deletes := rdf.Describe(ruleURI).
		Add(rdf.Type, rdf.Raw("acl:Authorization")).
		Add("acl:accessTo", rdf.Raw("?resource")).
		Add("acl:agent", rdf.IRIs(grantees)...)
	if isDefault {
		deletes.Add("acl:default", rdf.Raw("?resource"))
	}
	deletes.Add("acl:mode", rdf.IRIs(modes)...)
	patch := rdf.NewPatch().
		Where(rdf.Describe(ruleURI).
			Add(rdf.Type, rdf.Raw("acl:Authorization")).
			Add("acl:accessTo", rdf.Raw("?resource"))).
		Delete(deletes)
	if err := e.cfg.Pod.Patch(ctx, ruleURI, patch.Body()); err != nil {
		return errors.Mark(err, ErrPatchRejected)
	}
	e.cfg.Logger.Debug("revoked", zap.String("rule", ruleURI))
	return nil
}

func (e *enforcer) aclURI(ctx context.Context, resource string) (string, error) {
	aclURI, err := e.cfg.Pod.ACLResourceURI(ctx, resource)
	if err != nil {
		return "", errors.Mark(
			errors.Wrapf(err, "[wac] - acl not found for %s", resource),
			ErrACLNotFound,
		)
	}
	return aclURI, nil
}

// ownerRule grants the acting identity full modes on the resource,
// inheritable by contained resources.
func ownerRule(owner, resource string) *rdf.Description {
	ref := relativeRef(resource)
	return rdf.Describe("#owner").
		Add(rdf.Type, rdf.Raw("acl:Authorization")).
		Add("acl:accessTo", rdf.IRI(ref)).
		Add("acl:agent", rdf.IRI(owner)).
		Add("acl:default", rdf.IRI(ref)).
		Add("acl:mode", rdf.Raw("acl:Read"), rdf.Raw("acl:Write"), rdf.Raw("acl:Control"))
}

// rule builds the statements a grant inserts; rollback deletes the same
// statements, identified by the rule's URI.
func rule(
	subject string,
	grantees []string,
	resource string,
	isDefault bool,
	modes []string,
) *rdf.Description {
	ref := relativeRef(resource)
	d := rdf.Describe(subject).
		Add(rdf.Type, rdf.Raw("acl:Authorization")).
		Add("acl:accessTo", rdf.IRI(ref)).
		Add("acl:agent", rdf.IRIs(grantees)...)
	if isDefault {
		d.Add("acl:default", rdf.IRI(ref))
	}
	return d.Add("acl:mode", rdf.IRIs(modes)...)
}

// relativeRef references the resource relative to its acl document, which
// lives alongside it.
func relativeRef(resource string) string {
	return "." + resource[strings.LastIndex(resource, "/"):]
}
