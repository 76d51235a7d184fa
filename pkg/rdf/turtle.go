package rdf

import (
	"fmt"
	"strings"
)

// Term is a single RDF term rendered into a turtle document.
type Term struct {
	value    string
	literal  bool
	raw      bool
	datatype string
}

// IRI renders the value as an IRI reference, e.g. <https://...>.
func IRI(value string) Term { return Term{value: value} }

// Raw renders the value verbatim: prefixed names ("acl:Read") and patch
// variables ("?resource").
func Raw(value string) Term { return Term{value: value, raw: true} }

// Literal renders the value as a quoted string literal.
func Literal(value string) Term { return Term{value: value, literal: true} }

// TypedLiteral renders the value as a literal with the given datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{value: value, literal: true, datatype: datatype}
}

// Node renders the value as either an IRI or a plain literal depending on
// whether it looks dereferenceable. Purposes and seeAlso references arrive
// as a mix of both.
func Node(value string) Term {
	if strings.HasPrefix(value, "http") {
		return IRI(value)
	}
	return Literal(value)
}

// IRIs lifts a list of IRI strings into terms.
func IRIs(values []string) []Term {
	terms := make([]Term, len(values))
	for i, v := range values {
		terms[i] = IRI(v)
	}
	return terms
}

// Nodes lifts a list of mixed IRI/literal strings into terms.
func Nodes(values []string) []Term {
	terms := make([]Term, len(values))
	for i, v := range values {
		terms[i] = Node(v)
	}
	return terms
}

func (t Term) String() string {
	if t.raw {
		return t.value
	}
	if !t.literal {
		return "<" + t.value + ">"
	}
	if t.datatype != "" {
		return fmt.Sprintf("%q^^<%s>", t.value, t.datatype)
	}
	return fmt.Sprintf("%q", t.value)
}

type predicateObjects struct {
	predicate string
	objects   []Term
}

// Description accumulates the predicate-object list for a single subject.
// The zero-object case is significant: Add with no objects is a no-op, so
// empty multi-valued fields omit their predicate entirely.
type Description struct {
	subject    string
	predicates []predicateObjects
}

// Describe opens a description of the given subject reference. The reference
// is rendered verbatim inside angle brackets, so relative references such as
// "#grant-..." and "./resource" work as written.
func Describe(subject string) *Description {
	return &Description{subject: subject}
}

// Add appends objects under the given predicate. The predicate is rendered
// as an IRI reference when absolute and verbatim otherwise ("a", prefixed
// names, variables). Calls with zero objects are dropped.
func (d *Description) Add(predicate string, objects ...Term) *Description {
	if len(objects) == 0 {
		return d
	}
	d.predicates = append(d.predicates, predicateObjects{predicate: predicate, objects: objects})
	return d
}

func (d *Description) write(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%s<%s>", indent, d.subject)
	for i, po := range d.predicates {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString("\n" + indent + "    " + renderPredicate(po.predicate) + " ")
		for j, o := range po.objects {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.String())
		}
	}
	b.WriteString(" .\n")
}

func renderPredicate(predicate string) string {
	if strings.HasPrefix(predicate, "http") {
		return "<" + predicate + ">"
	}
	return predicate
}

// Document renders one or more descriptions as a turtle document.
func Document(descriptions ...*Description) string {
	var b strings.Builder
	for i, d := range descriptions {
		if i > 0 {
			b.WriteString("\n")
		}
		d.write(&b, "")
	}
	return b.String()
}
