package interop

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
)

// DataAuthorization records the access actually granted for one need: who,
// which modes, which resources, and the enforcement rules that back it.
type DataAuthorization struct {
	URI string
	// AccessModes are the granted modes.
	AccessModes []string
	// RegisteredShapeTrees constrain the shape of the authorized data.
	RegisteredShapeTrees []string
	// DataInstances are the authorized resources.
	DataInstances []string
	// DataRegistrations are the registrations the authorization scopes to.
	DataRegistrations []string
	// Grantees are the social agents granted access.
	Grantees []string
	// Scopes carry the scope-of-authorization markers.
	Scopes []string
	// SatisfiesAccessNeed is the URI of the need this authorization
	// satisfies. Exactly one per authorization.
	SatisfiesAccessNeed string
	// EnforcedByRules back-references the access-control rules installed
	// when the authorization was granted.
	EnforcedByRules []string
}

// AccessAuthorization aggregates the data authorizations created for one
// need group.
type AccessAuthorization struct {
	URI string
	// AccessNeedGroups are the URIs of the groups the authorization covers.
	AccessNeedGroups []string
	// DataAuthorizations are the URIs of the aggregated authorizations.
	DataAuthorizations []string
}

func loadDataAuthorization(store graph.Store) graph.LoadFunc[DataAuthorization] {
	return func(ctx context.Context, uri string) (DataAuthorization, error) {
		d := DataAuthorization{URI: uri}
		var satisfies []string
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("accessMode"), &d.AccessModes},
			{rdf.Interop("registeredShapeTree"), &d.RegisteredShapeTrees},
			{rdf.Interop("hasDataInstance"), &d.DataInstances},
			{rdf.Interop("hasDataRegistration"), &d.DataRegistrations},
			{rdf.Interop("grantee"), &d.Grantees},
			{rdf.Interop("scopeOfAuthorization"), &d.Scopes},
			{rdf.Interop("satisfiesAccessNeed"), &satisfies},
			{rdf.RDFS("seeAlso"), &d.EnforcedByRules},
		})
		d.SatisfiesAccessNeed = first(satisfies)
		return d, nil
	}
}

func loadAccessAuthorization(store graph.Store) graph.LoadFunc[AccessAuthorization] {
	return func(ctx context.Context, uri string) (AccessAuthorization, error) {
		a := AccessAuthorization{URI: uri}
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("hasAccessNeedGroup"), &a.AccessNeedGroups},
			{rdf.Interop("hasDataAuthorization"), &a.DataAuthorizations},
		})
		return a, nil
	}
}
