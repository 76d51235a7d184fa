package fiber

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/authz"
	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/arya-analytics/aegis/pkg/session"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

// Service exposes the authorization transactions and the request inbox over
// HTTP. Callers authenticate with a bearer token carrying their WebID; the
// WebID becomes the grantedBy identity of the transactions they execute.
type Service struct {
	Authz      *authz.Service
	Store      graph.Store
	Containers registry.Containers
	Token      *session.TokenService
}

func (s *Service) BindTo(parent fiber.Router) {
	router := parent.Group("/authz")
	router.Use(TokenMiddleware(s.Token))
	router.Get("/requests", s.listRequests)
	router.Post("/grant", s.grant)
	router.Post("/decline", s.decline)
	router.Post("/revoke", s.revoke)
}

// refresher is implemented by stores that can re-fetch a document whose
// listing changes underneath them, such as the inbox container.
type refresher interface {
	Refresh(ctx context.Context, uri string) error
}

func (s *Service) listRequests(c *fiber.Ctx) error {
	if s.Containers.Inbox == "" {
		c.Status(fiber.StatusNotFound)
		return c.JSON(fiber.Map{"error": "no inbox configured"})
	}
	if r, ok := s.Store.(refresher); ok {
		if err := r.Refresh(c.Context(), s.Containers.Inbox); err != nil {
			c.Status(fiber.StatusBadGateway)
			return c.JSON(fiber.Map{"error": err.Error()})
		}
	}
	contained, err := s.Store.FetchStatements(
		c.Context(), s.Containers.Inbox, rdf.LDP("contains"),
	)
	if err != nil {
		c.Status(fiber.StatusBadGateway)
		return c.JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"requests": rdf.Objects(contained)})
}

type grantRequest struct {
	Request string   `json:"request"`
	Groups  []string `json:"groups"`
}

func (s *Service) grant(c *fiber.Ctx) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": err.Error()})
	}
	receipt, err := s.Authz.Grant(c.Context(), req.Request, req.Groups, GetWebID(c))
	if err != nil {
		return transactionError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(fiber.Map{"receipt": receipt})
}

type declineRequest struct {
	Request string `json:"request"`
}

func (s *Service) decline(c *fiber.Ctx) error {
	var req declineRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": err.Error()})
	}
	receipt, err := s.Authz.Decline(c.Context(), req.Request, GetWebID(c))
	if err != nil {
		return transactionError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(fiber.Map{"receipt": receipt})
}

type revokeRequest struct {
	Receipt string `json:"receipt"`
}

func (s *Service) revoke(c *fiber.Ctx) error {
	var req revokeRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": err.Error()})
	}
	receipt, err := s.Authz.Revoke(c.Context(), req.Receipt, GetWebID(c))
	if err != nil {
		return transactionError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(fiber.Map{"receipt": receipt})
}

func transactionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, authz.ErrProcessing) {
		c.Status(fiber.StatusConflict)
	} else {
		c.Status(fiber.StatusBadGateway)
	}
	return c.JSON(fiber.Map{"error": err.Error()})
}
