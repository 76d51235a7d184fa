package interop

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
)

// AccessRequest is a request for access to resources on the subject's
// storage, pointing at the need groups it wants satisfied. Immutable once
// published; the agent only ever reads it.
type AccessRequest struct {
	URI string
	// AccessNeedGroups are the URIs of the requested need groups.
	AccessNeedGroups []string
	// Senders are the social agents the request is from.
	Senders []string
	// Recipients are the social agents the request is addressed to.
	Recipients []string
	// Grantees are the social agents access is requested for.
	Grantees []string
	// Purposes state why access is requested, as URIs or literals.
	Purposes []string
	// SeeAlso carries free-form annotation references.
	SeeAlso []string
}

func loadAccessRequest(store graph.Store) graph.LoadFunc[AccessRequest] {
	return func(ctx context.Context, uri string) (AccessRequest, error) {
		r := AccessRequest{URI: uri}
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("hasAccessNeedGroup"), &r.AccessNeedGroups},
			{rdf.Interop("fromSocialAgent"), &r.Senders},
			{rdf.Interop("toSocialAgent"), &r.Recipients},
			{rdf.Interop("forSocialAgent"), &r.Grantees},
			{rdf.DPV("purpose"), &r.Purposes},
			{rdf.RDFS("seeAlso"), &r.SeeAlso},
		})
		return r, nil
	}
}
