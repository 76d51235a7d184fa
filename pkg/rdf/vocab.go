package rdf

// Namespaces of the vocabularies the agent speaks. Terms are minted through
// the helper functions below so call sites read like the documents they
// produce.
const (
	NamespaceInterop = "http://www.w3.org/ns/solid/interop#"
	NamespaceACL     = "http://www.w3.org/ns/auth/acl#"
	NamespaceSolid   = "http://www.w3.org/ns/solid/terms#"
	NamespaceLDP     = "http://www.w3.org/ns/ldp#"
	NamespaceSpace   = "http://www.w3.org/ns/pim/space#"
	NamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceXSD     = "http://www.w3.org/2001/XMLSchema#"
	NamespaceDPV     = "https://w3id.org/dpv#"
)

func Interop(term string) string { return NamespaceInterop + term }

func ACL(term string) string { return NamespaceACL + term }

func Solid(term string) string { return NamespaceSolid + term }

func LDP(term string) string { return NamespaceLDP + term }

func Space(term string) string { return NamespaceSpace + term }

func RDF(term string) string { return NamespaceRDF + term }

func RDFS(term string) string { return NamespaceRDFS + term }

func XSD(term string) string { return NamespaceXSD + term }

func DPV(term string) string { return NamespaceDPV + term }

// Type is the rdf:type predicate, rendered as "a" in turtle.
const Type = "a"

// The four access modes of the WAC enumeration.
var (
	ModeRead    = ACL("Read")
	ModeWrite   = ACL("Write")
	ModeAppend  = ACL("Append")
	ModeControl = ACL("Control")
)
