// Package authz orchestrates the authorization transactions: the grant,
// revoke, and decline sagas that fan out access-control mutations and then
// write registry records. There is no cross-resource atomicity on the
// target protocol; the sagas define best-effort compensation instead.
package authz

import (
	"sync/atomic"

	"github.com/arya-analytics/aegis/pkg/interop"
	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/arya-analytics/aegis/pkg/wac"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	// ErrProcessing is returned when a transaction is started while another
	// is still in flight on the same service. Callers queue or reject;
	// the service only guards the flag.
	ErrProcessing = errors.New("[authz] - transaction already in progress")
	// ErrPartialEnforcement marks the aggregate failure raised when at
	// least one enforcement operation of a grant failed. The succeeded
	// subset has been rolled back by the time it is returned.
	ErrPartialEnforcement = errors.New("[authz] - enforcement partially failed")
)

type Config struct {
	// Entities provides cached reads of the authorization graph.
	Entities *interop.Service
	// Enforcer mutates access-control rules on protected resources.
	Enforcer wac.Enforcer
	// Recorder persists registry records.
	Recorder registry.Recorder
	// Containers is the registry layout records are written into.
	Containers registry.Containers
	// Logger is the logger used by the service.
	Logger *zap.Logger
}

// Service executes authorization transactions. One transaction at a time:
// concurrent calls fail with ErrProcessing.
type Service struct {
	cfg        Config
	processing int32
}

func OpenService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{cfg: cfg}
}

// begin acquires the processing flag. Every exit path of a transaction must
// release it via end, including failure paths.
func (s *Service) begin() error {
	if !atomic.CompareAndSwapInt32(&s.processing, 0, 1) {
		return ErrProcessing
	}
	return nil
}

func (s *Service) end() { atomic.StoreInt32(&s.processing, 0) }
