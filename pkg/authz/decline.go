package authz

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Decline answers an access request without granting anything: no
// access-control rules are touched, and the recorded receipt carries no
// access authorizations. Returns the receipt's URI.
func (s *Service) Decline(
	ctx context.Context,
	requestURI string,
	grantedBy string,
) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	request, err := s.cfg.Entities.AccessRequests.Read(ctx, requestURI)
	if err != nil {
		return "", err
	}
	receiptURI, err := s.cfg.Recorder.CreateAccessReceipt(
		ctx,
		s.cfg.Containers.AccessReceipt,
		registry.AccessReceiptDraft{
			Grantees:      request.Grantees,
			GrantedBy:     grantedBy,
			Purposes:      request.Purposes,
			SeeAlso:       request.SeeAlso,
			AccessRequest: request.URI,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "[authz] - registry write failed")
	}
	s.cfg.Logger.Info(
		"access declined",
		zap.String("request", requestURI),
		zap.String("receipt", receiptURI),
	)
	return receiptURI, nil
}
