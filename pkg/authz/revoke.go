package authz

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Revoke executes the revocation transaction for a previously recorded
// access receipt and returns the URI of the superseding receipt.
//
// Revocation mirrors granting in reverse but carries no compensation: when
// some rule deletions fail, the partially revoked state persists, the
// settled outcomes are logged, and the aggregate error is returned without
// writing a new receipt. A successful revocation records a receipt with no
// access authorizations whose replaces reference chains it to the receipt
// it supersedes; the audit trail is superseded, never deleted.
func (s *Service) Revoke(
	ctx context.Context,
	receiptURI string,
	grantedBy string,
) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	receipt, err := s.cfg.Entities.AccessReceipts.Read(ctx, receiptURI)
	if err != nil {
		return "", err
	}

	// Aggregate: the receipt's access authorizations, then every data
	// authorization they reference.
	accessOutcomes := fanOut(
		ctx, receipt.AccessAuthorizations, s.cfg.Entities.AccessAuthorizations.Read,
	)
	if err, _ := firstErr(accessOutcomes); err != nil {
		return "", err
	}
	var dataURIs []string
	for _, a := range values(accessOutcomes) {
		dataURIs = append(dataURIs, a.DataAuthorizations...)
	}
	dataOutcomes := fanOut(ctx, dataURIs, s.cfg.Entities.DataAuthorizations.Read)
	if err, _ := firstErr(dataOutcomes); err != nil {
		return "", err
	}

	// One revocation per enforcing rule, with the receipt's grantees and
	// the owning data authorization's modes.
	type revocation struct {
		rule  string
		modes []string
	}
	var revocations []revocation
	for _, d := range values(dataOutcomes) {
		for _, rule := range d.EnforcedByRules {
			revocations = append(revocations, revocation{rule: rule, modes: d.AccessModes})
		}
	}
	outcomes := fanOut(ctx, revocations, func(ctx context.Context, r revocation) (struct{}, error) {
		return struct{}{}, s.cfg.Enforcer.Revoke(
			ctx, r.rule, receipt.Grantees, grantDefault, r.modes,
		)
	})
	if err, failed := firstErr(outcomes); err != nil {
		combined := error(nil)
		for i, o := range outcomes {
			if o.err != nil {
				s.cfg.Logger.Error(
					"revocation failed",
					zap.String("rule", revocations[i].rule),
					zap.Error(o.err),
				)
				combined = errors.CombineErrors(combined, o.err)
			}
		}
		return "", errors.Wrapf(
			combined,
			"[authz] - revocation failed for %d of %d rules",
			failed, len(revocations),
		)
	}

	superseding, err := s.cfg.Recorder.CreateAccessReceipt(
		ctx,
		s.cfg.Containers.AccessReceipt,
		registry.AccessReceiptDraft{
			Grantees:      receipt.Grantees,
			GrantedBy:     grantedBy,
			Purposes:      receipt.Purposes,
			SeeAlso:       receipt.SeeAlso,
			AccessRequest: receipt.AccessRequest,
			Replaces:      receipt.URI,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "[authz] - registry write failed")
	}
	s.cfg.Logger.Info(
		"access revoked",
		zap.String("receipt", receiptURI),
		zap.String("superseded_by", superseding),
		zap.Int("rules", len(revocations)),
	)
	return superseding, nil
}
