package authz_test

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/authz"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	requestURI  = "https://example.com/requests/one#it"
	groupURI    = "https://example.com/needs#group"
	needURI     = "https://example.com/needs#one"
	resourceA   = "https://pod.example.com/health/heart-rate"
	resourceB   = "https://pod.example.com/health/steps"
	alice       = "https://alice.example.com/profile#me"
	bob         = "https://bob.example.com/profile#me"
	consentDoc  = "https://example.com/docs/consent"
	receiptURI  = "https://pod.example.com/authz/receipts/r1#access-receipt-1"
	accessAuthz = "https://pod.example.com/authz/access/a1#access-authorization-1"
	dataAuthz   = "https://pod.example.com/authz/data/d1#data-authorization-1"
)

// requestGraph is one request pointing at one group of one need over two
// resources.
func requestGraph() triples {
	return triples{
		requestURI: {
			rdf.Interop("hasAccessNeedGroup"): {groupURI},
			rdf.Interop("forSocialAgent"):     {alice},
			rdf.DPV("purpose"):                {"research"},
			rdf.RDFS("seeAlso"):               {consentDoc},
		},
		groupURI: {
			rdf.Interop("hasAccessNeed"): {needURI},
		},
		needURI: {
			rdf.Interop("accessMode"):      {rdf.ACL("Read")},
			rdf.Interop("hasDataInstance"): {resourceA, resourceB},
		},
	}
}

var _ = Describe("Grant", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(requestGraph())
	})

	Context("every enforcement succeeds", func() {
		It("Should install one inheritable rule per resource of every need", func() {
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(f.enforcer.grants).To(HaveLen(2))
			resources := []string{
				f.enforcer.grants[0].resource,
				f.enforcer.grants[1].resource,
			}
			Expect(resources).To(ConsistOf(resourceA, resourceB))
			for _, g := range f.enforcer.grants {
				Expect(g.grantees).To(Equal([]string{alice}))
				Expect(g.isDefault).To(BeTrue())
				Expect(g.modes).To(Equal([]string{rdf.ACL("Read")}))
			}
			Expect(f.enforcer.rollbacks).To(BeEmpty())
		})

		It("Should record one data authorization per need with its rules in order", func() {
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(f.recorder.data).To(HaveLen(1))
			d := f.recorder.data[0]
			Expect(d.SatisfiesAccessNeed).To(Equal(needURI))
			Expect(d.Grantees).To(Equal([]string{alice}))
			Expect(d.AccessModes).To(Equal([]string{rdf.ACL("Read")}))
			Expect(d.DataInstances).To(Equal([]string{resourceA, resourceB}))
			Expect(d.EnforcedByRules).To(Equal([]string{
				ruleFor(resourceA),
				ruleFor(resourceB),
			}))
		})

		It("Should record one access authorization per group and one receipt", func() {
			receipt, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).ToNot(HaveOccurred())
			Expect(receipt).To(Equal("receipt:new"))
			Expect(f.recorder.access).To(HaveLen(1))
			a := f.recorder.access[0]
			Expect(a.AccessNeedGroup).To(Equal(groupURI))
			Expect(a.DataAuthorizations).To(Equal([]string{"data-authz:" + needURI}))
			Expect(f.recorder.receipts).To(HaveLen(1))
			r := f.recorder.receipts[0]
			Expect(r.AccessRequest).To(Equal(requestURI))
			Expect(r.GrantedBy).To(Equal(bob))
			Expect(r.Grantees).To(Equal([]string{alice}))
			Expect(r.Purposes).To(Equal([]string{"research"}))
			Expect(r.SeeAlso).To(Equal([]string{consentDoc}))
			Expect(r.AccessAuthorizations).To(Equal([]string{"access-authz:" + groupURI}))
			Expect(r.Replaces).To(BeEmpty())
		})

		It("Should skip groups that flatten to no needs", func() {
			t := requestGraph()
			t[requestURI][rdf.Interop("hasAccessNeedGroup")] = []string{
				groupURI, "https://example.com/needs#empty",
			}
			f = newFixture(t)
			_, err := f.service.Grant(
				ctx, requestURI, []string{groupURI, "https://example.com/needs#empty"}, bob,
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(f.recorder.access).To(HaveLen(1))
			Expect(f.recorder.access[0].AccessNeedGroup).To(Equal(groupURI))
		})
	})

	Context("an enforcement fails", func() {
		rejection := errors.New("403 Forbidden")

		BeforeEach(func() {
			f.enforcer.failGrant[resourceB] = rejection
		})

		It("Should roll back exactly the rules that installed", func() {
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).To(HaveOccurred())
			Expect(f.enforcer.rollbacks).To(HaveLen(1))
			Expect(f.enforcer.rollbacks[0].rule).To(Equal(ruleFor(resourceA)))
			Expect(f.enforcer.rollbacks[0].resource).To(Equal(resourceA))
		})

		It("Should write no registry records", func() {
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).To(HaveOccurred())
			Expect(f.recorder.data).To(BeEmpty())
			Expect(f.recorder.access).To(BeEmpty())
			Expect(f.recorder.receipts).To(BeEmpty())
		})

		It("Should surface the original rejection marked as partial enforcement", func() {
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(errors.Is(err, authz.ErrPartialEnforcement)).To(BeTrue())
			Expect(errors.Is(err, rejection)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("1 of 2"))
		})

		It("Should roll back nothing when every enforcement fails", func() {
			f.enforcer.failGrant[resourceA] = rejection
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).To(HaveOccurred())
			Expect(f.enforcer.rollbacks).To(BeEmpty())
		})
	})

	Context("a registry write fails", func() {
		It("Should leave the installed rules in place and report the failure", func() {
			f.recorder.failData = errors.New("507 Insufficient Storage")
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("registry write failed"))
			Expect(f.enforcer.rollbacks).To(BeEmpty())
			Expect(f.recorder.receipts).To(BeEmpty())
		})
	})

	It("Should reject a grant with no selected groups", func() {
		_, err := f.service.Grant(ctx, requestURI, nil, bob)
		Expect(err).To(HaveOccurred())
		Expect(f.enforcer.grants).To(BeEmpty())
	})

	It("Should reject a transaction while another is in flight", func() {
		f.enforcer.gate = make(chan struct{})
		f.enforcer.started = make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
			Expect(err).ToNot(HaveOccurred())
		}()
		<-f.enforcer.started
		_, err := f.service.Grant(ctx, requestURI, []string{groupURI}, bob)
		Expect(errors.Is(err, authz.ErrProcessing)).To(BeTrue())
		close(f.enforcer.gate)
		<-done
		_, err = f.service.Decline(ctx, requestURI, bob)
		Expect(err).ToNot(HaveOccurred())
	})
})
