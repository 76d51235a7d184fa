package interop

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
)

// AccessReceipt is the terminal audit record of a completed grant, decline
// or revoke transaction. Receipts chain through Replaces: a revocation
// supersedes the receipt it revokes rather than deleting it.
type AccessReceipt struct {
	URI string
	// GrantedAt is the creation timestamp, as written.
	GrantedAt string
	// Grantees are the social agents the transaction concerned.
	Grantees []string
	// GrantedBy is the identity that executed the transaction.
	GrantedBy string
	// Purposes state why access was granted.
	Purposes []string
	// SeeAlso carries annotation references.
	SeeAlso []string
	// Replaces is the receipt this one supersedes. Absent on grant and
	// decline receipts.
	Replaces string
	// AccessRequest is the request the transaction answered.
	AccessRequest string
	// AccessAuthorizations are the authorizations the transaction created.
	// Empty on decline and revoke receipts.
	AccessAuthorizations []string
}

func loadAccessReceipt(store graph.Store) graph.LoadFunc[AccessReceipt] {
	return func(ctx context.Context, uri string) (AccessReceipt, error) {
		r := AccessReceipt{URI: uri}
		var grantedAt, grantedBy, replaces, requests []string
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("grantedAt"), &grantedAt},
			{rdf.Interop("grantee"), &r.Grantees},
			{rdf.Interop("grantedBy"), &grantedBy},
			{rdf.DPV("purpose"), &r.Purposes},
			{rdf.RDFS("seeAlso"), &r.SeeAlso},
			{rdf.Interop("replaces"), &replaces},
			{rdf.Interop("hasAccessRequest"), &requests},
			{rdf.Interop("hasAccessAuthorization"), &r.AccessAuthorizations},
		})
		r.GrantedAt = first(grantedAt)
		r.GrantedBy = first(grantedBy)
		r.Replaces = first(replaces)
		r.AccessRequest = first(requests)
		return r, nil
	}
}
