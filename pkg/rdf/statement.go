package rdf

// Statement is a single (subject, predicate, object) assertion resolved from
// a remote document. Objects are kept as raw strings: an IRI for resource
// objects, the lexical form for literals.
type Statement struct {
	Subject   string
	Predicate string
	Object    string
}

// Objects collects the object of every statement, preserving order. The
// result of a per-predicate lookup collapses to this for the projections.
func Objects(statements []Statement) []string {
	objects := make([]string, len(statements))
	for i, s := range statements {
		objects[i] = s.Object
	}
	return objects
}
