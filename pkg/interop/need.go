package interop

import (
	"context"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
)

// AccessNeedGroup bundles access needs that serve a common purpose. We do
// not support replacement or description sets.
type AccessNeedGroup struct {
	URI string
	// AccessNeeds are the URIs of the needs in the group.
	AccessNeeds []string
	// Necessity marks the group required or optional. Absent when the
	// group does not state it.
	Necessity string
}

// AccessNeed is a declared requirement for specific access modes on
// specific data instances. We do not support inheritance.
type AccessNeed struct {
	URI string
	// AccessModes are the requested modes, from the acl enumeration.
	AccessModes []string
	// CreatorAccessModes are the modes requested over created data.
	CreatorAccessModes []string
	// RegisteredShapeTrees constrain the shape of the needed data.
	RegisteredShapeTrees []string
	// DataInstances are the resources an enforcement action targets.
	DataInstances []string
	// Necessity marks the need required or optional.
	Necessity string
}

func loadAccessNeedGroup(store graph.Store) graph.LoadFunc[AccessNeedGroup] {
	return func(ctx context.Context, uri string) (AccessNeedGroup, error) {
		g := AccessNeedGroup{URI: uri}
		var necessity []string
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("hasAccessNeed"), &g.AccessNeeds},
			{rdf.Interop("accessNecessity"), &necessity},
		})
		g.Necessity = first(necessity)
		return g, nil
	}
}

func loadAccessNeed(store graph.Store) graph.LoadFunc[AccessNeed] {
	return func(ctx context.Context, uri string) (AccessNeed, error) {
		n := AccessNeed{URI: uri}
		var necessity []string
		resolve(ctx, store, uri, []lookup{
			{rdf.Interop("accessMode"), &n.AccessModes},
			{rdf.Interop("creatorAccessMode"), &n.CreatorAccessModes},
			{rdf.Interop("registeredShapeTree"), &n.RegisteredShapeTrees},
			{rdf.Interop("hasDataInstance"), &n.DataInstances},
			{rdf.Interop("accessNecessity"), &necessity},
		})
		n.Necessity = first(necessity)
		return n, nil
	}
}
