package authz

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/interop"
	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Container-scoped grants are inheritable throughout.
const grantDefault = true

// target is one enforcement action of a grant transaction: one (need,
// resource) pair carrying the request's grantees and the need's modes.
type target struct {
	resource string
	need     interop.AccessNeed
	grantees []string
}

// Grant executes the granting transaction for the chosen need groups of an
// access request and returns the URI of the access receipt it records.
//
// Phases: aggregate the request graph, install an access-control rule per
// (need, resource) target, and on full success record one data
// authorization per need, one access authorization per group, and one
// receipt. If any rule installation fails, the rules that did install are
// rolled back and the original failure is returned; no registry records are
// written on that path.
func (s *Service) Grant(
	ctx context.Context,
	requestURI string,
	groupURIs []string,
	grantedBy string,
) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	if len(groupURIs) == 0 {
		return "", errors.New("[authz] - no access need groups selected")
	}
	request, err := s.cfg.Entities.AccessRequests.Read(ctx, requestURI)
	if err != nil {
		return "", err
	}

	// Aggregate: groups, then the needs they flatten to. Need order is the
	// positional frame for the enforcement results below.
	groupOutcomes := fanOut(ctx, groupURIs, s.cfg.Entities.AccessNeedGroups.Read)
	if err, _ := firstErr(groupOutcomes); err != nil {
		return "", err
	}
	groups := values(groupOutcomes)
	var needURIs []string
	for _, g := range groups {
		needURIs = append(needURIs, g.AccessNeeds...)
	}
	needOutcomes := fanOut(ctx, needURIs, s.cfg.Entities.AccessNeeds.Read)
	if err, _ := firstErr(needOutcomes); err != nil {
		return "", err
	}
	needs := values(needOutcomes)

	var targets []target
	for _, need := range needs {
		for _, resource := range need.DataInstances {
			targets = append(targets, target{
				resource: resource,
				need:     need,
				grantees: request.Grantees,
			})
		}
	}

	// Enforce: all targets, full barrier.
	enforced := fanOut(ctx, targets, func(ctx context.Context, t target) (string, error) {
		return s.cfg.Enforcer.Grant(ctx, t.grantees, t.resource, grantDefault, t.need.AccessModes)
	})
	if err, failed := firstErr(enforced); err != nil {
		s.rollback(ctx, targets, enforced)
		return "", errors.Mark(
			errors.Wrapf(
				err,
				"[authz] - enforcement failed for %d of %d targets",
				failed, len(targets),
			),
			ErrPartialEnforcement,
		)
	}

	// Record data authorizations: one per need, each claiming its slice of
	// the positional enforcement results.
	type needRules struct {
		need  interop.AccessNeed
		rules []string
	}
	slices := make([]needRules, len(needs))
	offset := 0
	for i, need := range needs {
		count := len(need.DataInstances)
		rules := make([]string, count)
		for j, o := range enforced[offset : offset+count] {
			rules[j] = o.value
		}
		offset += count
		slices[i] = needRules{need: need, rules: rules}
	}
	dataCreated := fanOut(ctx, slices, func(ctx context.Context, nr needRules) (string, error) {
		return s.cfg.Recorder.CreateDataAuthorization(
			ctx,
			s.cfg.Containers.DataAuthorization,
			registry.DataAuthorizationDraft{
				Grantees:            request.Grantees,
				AccessModes:         nr.need.AccessModes,
				DataInstances:       nr.need.DataInstances,
				SatisfiesAccessNeed: nr.need.URI,
				EnforcedByRules:     nr.rules,
			},
		)
	})
	if err, _ := firstErr(dataCreated); err != nil {
		return "", s.registryFailure(err, enforced)
	}
	dataAuthzByNeed := make(map[string]string, len(needs))
	for i, o := range dataCreated {
		dataAuthzByNeed[slices[i].need.URI] = o.value
	}

	// Record access authorizations: one per group that produced at least
	// one data authorization.
	var groupDrafts []registry.AccessAuthorizationDraft
	for _, g := range groups {
		var uris []string
		for _, needURI := range g.AccessNeeds {
			if uri, ok := dataAuthzByNeed[needURI]; ok {
				uris = append(uris, uri)
			}
		}
		if len(uris) == 0 {
			continue
		}
		groupDrafts = append(groupDrafts, registry.AccessAuthorizationDraft{
			AccessNeedGroup:    g.URI,
			DataAuthorizations: uris,
		})
	}
	accessCreated := fanOut(
		ctx,
		groupDrafts,
		func(ctx context.Context, d registry.AccessAuthorizationDraft) (string, error) {
			return s.cfg.Recorder.CreateAccessAuthorization(
				ctx, s.cfg.Containers.AccessAuthorization, d,
			)
		},
	)
	if err, _ := firstErr(accessCreated); err != nil {
		return "", s.registryFailure(err, enforced)
	}

	receiptURI, err := s.cfg.Recorder.CreateAccessReceipt(
		ctx,
		s.cfg.Containers.AccessReceipt,
		registry.AccessReceiptDraft{
			Grantees:             request.Grantees,
			GrantedBy:            grantedBy,
			Purposes:             request.Purposes,
			SeeAlso:              request.SeeAlso,
			AccessRequest:        request.URI,
			AccessAuthorizations: values(accessCreated),
		},
	)
	if err != nil {
		return "", s.registryFailure(err, enforced)
	}
	s.cfg.Logger.Info(
		"access granted",
		zap.String("request", requestURI),
		zap.String("receipt", receiptURI),
		zap.Int("rules", len(targets)),
	)
	return receiptURI, nil
}

// rollback undoes the succeeded subset of a partially failed enforcement
// phase. Rollback failures are logged, never returned; the caller observes
// the original enforcement failure.
func (s *Service) rollback(ctx context.Context, targets []target, enforced []outcome[string]) {
	type undo struct {
		t    target
		rule string
	}
	var undos []undo
	for i, o := range enforced {
		if o.err == nil {
			undos = append(undos, undo{t: targets[i], rule: o.value})
		}
	}
	s.cfg.Logger.Error(
		"enforcement failed, rolling back",
		zap.Int("installed", len(undos)),
		zap.Int("targets", len(targets)),
	)
	outcomes := fanOut(ctx, undos, func(ctx context.Context, u undo) (struct{}, error) {
		return struct{}{}, s.cfg.Enforcer.Rollback(
			ctx, u.rule, u.t.grantees, u.t.resource, grantDefault, u.t.need.AccessModes,
		)
	})
	for i, o := range outcomes {
		if o.err != nil {
			s.cfg.Logger.Error(
				"rollback failed",
				zap.String("rule", undos[i].rule),
				zap.Error(o.err),
			)
		}
	}
}

// registryFailure surfaces a registry-write failure after enforcement
// succeeded. The installed rules are not compensated; they are logged so an
// operator can reconcile the enforcement and registry sides.
func (s *Service) registryFailure(err error, enforced []outcome[string]) error {
	rules := make([]string, len(enforced))
	for i, o := range enforced {
		rules[i] = o.value
	}
	s.cfg.Logger.Error(
		"registry write failed, installed rules left in place",
		zap.Strings("rules", rules),
		zap.Error(err),
	)
	return errors.Wrap(err, "[authz] - registry write failed")
}
