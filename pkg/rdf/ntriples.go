package rdf

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Parser extracts statements from a linked-data document. Interpreting a
// graph serialization is otherwise outside this module; NTriples below
// covers the one line-based format the agent negotiates for, and anything
// richer can be plugged in behind this interface.
type Parser interface {
	Parse(body string) ([]Statement, error)
}

// NTriples parses application/n-triples documents. IRIs are kept verbatim,
// literals are reduced to their lexical form (language tags and datatypes
// are dropped, the projections only ever compare lexical values). Blank
// node lines are skipped: the authorization vocabularies never hang data
// off blank nodes.
type NTriples struct{}

func (NTriples) Parse(body string) ([]Statement, error) {
	var statements []Statement
	for i, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, ok, err := parseTripleLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "[rdf] - line %d", i+1)
		}
		if ok {
			statements = append(statements, s)
		}
	}
	return statements, nil
}

func parseTripleLine(line string) (Statement, bool, error) {
	var s Statement
	line = strings.TrimSuffix(line, ".")
	subject, rest, err := readTerm(line)
	if err != nil {
		return s, false, err
	}
	predicate, rest, err := readTerm(rest)
	if err != nil {
		return s, false, err
	}
	object, _, err := readTerm(rest)
	if err != nil {
		return s, false, err
	}
	if subject == "" || predicate == "" {
		// Blank node subject or malformed line without an IRI.
		return s, false, nil
	}
	return Statement{Subject: subject, Predicate: predicate, Object: object}, true, nil
}

// readTerm consumes one term from the front of the line and returns its
// value along with the remainder. Blank nodes yield an empty value.
func readTerm(line string) (string, string, error) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "<"):
		end := strings.Index(line, ">")
		if end < 0 {
			return "", "", errors.New("[rdf] - unterminated iri")
		}
		return line[1:end], line[end+1:], nil
	case strings.HasPrefix(line, "\""):
		end := closingQuote(line)
		if end < 0 {
			return "", "", errors.New("[rdf] - unterminated literal")
		}
		value := unescapeLiteral(line[1:end])
		rest := line[end+1:]
		// Drop any language tag or datatype suffix.
		rest = strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(rest, "@") || strings.HasPrefix(rest, "^^") {
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				rest = rest[i:]
			} else {
				rest = ""
			}
		}
		return value, rest, nil
	case strings.HasPrefix(line, "_:"):
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			return "", line[i:], nil
		}
		return "", "", nil
	case line == "":
		return "", "", errors.New("[rdf] - missing term")
	default:
		return "", "", errors.Newf("[rdf] - unexpected term %q", line)
	}
}

func closingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unescapeLiteral(value string) string {
	r := strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(value)
}
