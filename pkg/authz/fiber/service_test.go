package fiber_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arya-analytics/aegis/pkg/authz"
	authzfiber "github.com/arya-analytics/aegis/pkg/authz/fiber"
	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/interop"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/arya-analytics/aegis/pkg/session"
	"github.com/arya-analytics/aegis/pkg/wac"
	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	requestURI = "https://example.com/requests/one#it"
	groupURI   = "https://example.com/needs#group"
	needURI    = "https://example.com/needs#one"
	resource   = "https://pod.example.com/health/heart-rate"
	alice      = "https://alice.example.com/profile#me"
	bob        = "https://bob.example.com/profile#me"
	inboxURI   = "https://pod.example.com/inbox/"
)

func store() graph.StoreFunc {
	triples := map[string]map[string][]string{
		inboxURI: {
			rdf.LDP("contains"): {"https://pod.example.com/inbox/one"},
		},
		requestURI: {
			rdf.Interop("hasAccessNeedGroup"): {groupURI},
			rdf.Interop("forSocialAgent"):     {alice},
		},
		groupURI: {
			rdf.Interop("hasAccessNeed"): {needURI},
		},
		needURI: {
			rdf.Interop("accessMode"):      {rdf.ACL("Read")},
			rdf.Interop("hasDataInstance"): {resource},
		},
	}
	return func(ctx context.Context, subject, predicate string) ([]rdf.Statement, error) {
		var statements []rdf.Statement
		for _, object := range triples[subject][predicate] {
			statements = append(statements, rdf.Statement{
				Subject:   subject,
				Predicate: predicate,
				Object:    object,
			})
		}
		return statements, nil
	}
}

// stubEnforcer grants every target and records who asked.
type stubEnforcer struct {
	mu     sync.Mutex
	grants int
}

func (e *stubEnforcer) Grant(
	ctx context.Context, grantees []string, resource string, isDefault bool, modes []string,
) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grants++
	return resource + ".acl#grant", nil
}

func (e *stubEnforcer) Rollback(
	ctx context.Context, ruleURI string, grantees []string, resource string,
	isDefault bool, modes []string,
) error {
	return nil
}

func (e *stubEnforcer) Revoke(
	ctx context.Context, ruleURI string, grantees []string, isDefault bool, modes []string,
) error {
	return nil
}

var _ wac.Enforcer = (*stubEnforcer)(nil)

// stubRecorder mints record URIs and remembers the receipts it wrote.
type stubRecorder struct {
	mu       sync.Mutex
	receipts []registry.AccessReceiptDraft
}

func (r *stubRecorder) CreateDataAuthorization(
	ctx context.Context, container string, draft registry.DataAuthorizationDraft,
) (string, error) {
	return "data-authz:" + draft.SatisfiesAccessNeed, nil
}

func (r *stubRecorder) CreateAccessAuthorization(
	ctx context.Context, container string, draft registry.AccessAuthorizationDraft,
) (string, error) {
	return "access-authz:" + draft.AccessNeedGroup, nil
}

func (r *stubRecorder) CreateAccessReceipt(
	ctx context.Context, container string, draft registry.AccessReceiptDraft,
) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, draft)
	return "receipt:new", nil
}

var _ registry.Recorder = (*stubRecorder)(nil)

var _ = Describe("Service", func() {
	var (
		app      *fiber.App
		tokens   *session.TokenService
		enforcer *stubEnforcer
		recorder *stubRecorder
		token    string
	)

	BeforeEach(func() {
		tokens = &session.TokenService{Secret: []byte("opaque"), Expiration: time.Hour}
		enforcer = &stubEnforcer{}
		recorder = &stubRecorder{}
		containers, err := registry.Layout("https://pod.example.com/", inboxURI)
		Expect(err).ToNot(HaveOccurred())
		svc := &authzfiber.Service{
			Authz: authz.OpenService(authz.Config{
				Entities:   interop.OpenService(interop.Config{Store: store()}),
				Enforcer:   enforcer,
				Recorder:   recorder,
				Containers: containers,
			}),
			Store:      store(),
			Containers: containers,
			Token:      tokens,
		}
		app = fiber.New(fiber.Config{DisableStartupMessage: true})
		svc.BindTo(app)
		token, err = tokens.New(bob)
		Expect(err).ToNot(HaveOccurred())
	})

	request := func(method, path, body string) *http.Request {
		req, err := http.NewRequest(method, path, strings.NewReader(body))
		Expect(err).ToNot(HaveOccurred())
		req.Header.Set("Authorization", "Bearer "+token)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		return req
	}

	parse := func(res *http.Response) map[string]interface{} {
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		Expect(err).ToNot(HaveOccurred())
		parsed := map[string]interface{}{}
		Expect(json.Unmarshal(body, &parsed)).To(Succeed())
		return parsed
	}

	Describe("GET /authz/requests", func() {
		It("Should list the requests contained in the inbox", func() {
			res, err := app.Test(request(http.MethodGet, "/authz/requests", ""))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(parse(res)["requests"]).To(Equal(
				[]interface{}{"https://pod.example.com/inbox/one"},
			))
		})

		It("Should reject an unauthenticated caller", func() {
			req, err := http.NewRequest(http.MethodGet, "/authz/requests", nil)
			Expect(err).ToNot(HaveOccurred())
			res, err := app.Test(req)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("Should reject a token signed with a different secret", func() {
			forged, err := (&session.TokenService{
				Secret: []byte("different"), Expiration: time.Hour,
			}).New(bob)
			Expect(err).ToNot(HaveOccurred())
			req, err := http.NewRequest(http.MethodGet, "/authz/requests", nil)
			Expect(err).ToNot(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+forged)
			res, err := app.Test(req)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /authz/grant", func() {
		It("Should execute the grant as the token's WebID", func() {
			res, err := app.Test(request(
				http.MethodPost,
				"/authz/grant",
				`{"request": "`+requestURI+`", "groups": ["`+groupURI+`"]}`,
			))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusCreated))
			Expect(parse(res)["receipt"]).To(Equal("receipt:new"))
			Expect(enforcer.grants).To(Equal(1))
			Expect(recorder.receipts).To(HaveLen(1))
			Expect(recorder.receipts[0].GrantedBy).To(Equal(bob))
		})

		It("Should reject an unparsable body", func() {
			res, err := app.Test(request(http.MethodPost, "/authz/grant", `{"request": 7}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("Should report a failed transaction as an upstream error", func() {
			res, err := app.Test(request(
				http.MethodPost, "/authz/grant", `{"request": "`+requestURI+`", "groups": []}`,
			))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("POST /authz/decline", func() {
		It("Should record a receipt without touching enforcement", func() {
			res, err := app.Test(request(
				http.MethodPost, "/authz/decline", `{"request": "`+requestURI+`"}`,
			))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusCreated))
			Expect(enforcer.grants).To(BeZero())
			Expect(recorder.receipts).To(HaveLen(1))
		})
	})
})
