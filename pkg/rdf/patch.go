package rdf

import "strings"

// Patch builds a solid:InsertDeletePatch document for mutating a remote
// resource. N3 patches may not contain blank nodes in the graphs, so every
// description added here must use a concrete or variable subject.
type Patch struct {
	inserts []*Description
	deletes []*Description
	where   []*Description
}

func NewPatch() *Patch { return &Patch{} }

func (p *Patch) Insert(d *Description) *Patch {
	p.inserts = append(p.inserts, d)
	return p
}

func (p *Patch) Delete(d *Description) *Patch {
	p.deletes = append(p.deletes, d)
	return p
}

func (p *Patch) Where(d *Description) *Patch {
	p.where = append(p.where, d)
	return p
}

// Body renders the patch. Graph blocks appear in where, deletes, inserts
// order; blocks without descriptions are omitted.
func (p *Patch) Body() string {
	var b strings.Builder
	b.WriteString("@prefix solid: <" + NamespaceSolid + ">.\n")
	b.WriteString("@prefix acl: <" + NamespaceACL + ">.\n\n")
	b.WriteString("_:patch a solid:InsertDeletePatch")
	writeGraph(&b, "solid:where", p.where)
	writeGraph(&b, "solid:deletes", p.deletes)
	writeGraph(&b, "solid:inserts", p.inserts)
	b.WriteString(" .\n")
	return b.String()
}

func writeGraph(b *strings.Builder, predicate string, descriptions []*Description) {
	if len(descriptions) == 0 {
		return
	}
	b.WriteString(";\n    " + predicate + " {\n")
	for _, d := range descriptions {
		d.write(b, "        ")
	}
	b.WriteString("    }")
}
