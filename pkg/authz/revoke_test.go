package authz_test

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// receiptGraph is one recorded receipt chaining to one access authorization
// over one data authorization backed by two rules.
func receiptGraph() triples {
	return triples{
		receiptURI: {
			rdf.Interop("grantee"):                {alice},
			rdf.DPV("purpose"):                    {"research"},
			rdf.Interop("hasAccessRequest"):       {requestURI},
			rdf.Interop("hasAccessAuthorization"): {accessAuthz},
		},
		accessAuthz: {
			rdf.Interop("hasAccessNeedGroup"):   {groupURI},
			rdf.Interop("hasDataAuthorization"): {dataAuthz},
		},
		dataAuthz: {
			rdf.Interop("grantee"):             {alice},
			rdf.Interop("accessMode"):          {rdf.ACL("Read")},
			rdf.Interop("satisfiesAccessNeed"): {needURI},
			rdf.RDFS("seeAlso"): {
				ruleFor(resourceA),
				ruleFor(resourceB),
			},
		},
	}
}

var _ = Describe("Revoke", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(receiptGraph())
	})

	Context("every revocation succeeds", func() {
		It("Should revoke every rule enforcing the receipt's authorizations", func() {
			_, err := f.service.Revoke(ctx, receiptURI, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(f.enforcer.revokes).To(HaveLen(2))
			rules := []string{f.enforcer.revokes[0].rule, f.enforcer.revokes[1].rule}
			Expect(rules).To(ConsistOf(ruleFor(resourceA), ruleFor(resourceB)))
			for _, r := range f.enforcer.revokes {
				Expect(r.grantees).To(Equal([]string{alice}))
				Expect(r.modes).To(Equal([]string{rdf.ACL("Read")}))
			}
			Expect(f.enforcer.grants).To(BeEmpty())
			Expect(f.enforcer.rollbacks).To(BeEmpty())
		})

		It("Should record a superseding receipt with no authorizations", func() {
			superseding, err := f.service.Revoke(ctx, receiptURI, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(superseding).To(Equal("receipt:new"))
			Expect(f.recorder.receipts).To(HaveLen(1))
			r := f.recorder.receipts[0]
			Expect(r.Replaces).To(Equal(receiptURI))
			Expect(r.AccessAuthorizations).To(BeEmpty())
			Expect(r.Grantees).To(Equal([]string{alice}))
			Expect(r.GrantedBy).To(Equal(bob))
			Expect(r.AccessRequest).To(Equal(requestURI))
			Expect(r.Purposes).To(Equal([]string{"research"}))
		})
	})

	Context("a revocation fails", func() {
		rejection := errors.New("409 Conflict")

		BeforeEach(func() {
			f.enforcer.failRevoke[ruleFor(resourceB)] = rejection
		})

		It("Should return the aggregate failure without compensating", func() {
			_, err := f.service.Revoke(ctx, receiptURI, bob)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, rejection)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("1 of 2"))
			Expect(f.enforcer.grants).To(BeEmpty())
			Expect(f.enforcer.rollbacks).To(BeEmpty())
		})

		It("Should write no superseding receipt", func() {
			_, err := f.service.Revoke(ctx, receiptURI, bob)
			Expect(err).To(HaveOccurred())
			Expect(f.recorder.receipts).To(BeEmpty())
		})
	})

	It("Should revoke nothing for a receipt with no authorizations", func() {
		t := receiptGraph()
		delete(t[receiptURI], rdf.Interop("hasAccessAuthorization"))
		f = newFixture(t)
		_, err := f.service.Revoke(ctx, receiptURI, bob)
		Expect(err).ToNot(HaveOccurred())
		Expect(f.enforcer.revokes).To(BeEmpty())
		Expect(f.recorder.receipts).To(HaveLen(1))
	})
})
