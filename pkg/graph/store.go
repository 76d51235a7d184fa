package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/arya-analytics/aegis/pkg/pod"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Store resolves the statements a remote document makes about a subject.
// The (subject, predicate) object-set lookup is the universal read
// primitive; nothing above this interface issues graph queries.
type Store interface {
	FetchStatements(ctx context.Context, subject, predicate string) ([]rdf.Statement, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, subject, predicate string) ([]rdf.Statement, error)

func (f StoreFunc) FetchStatements(
	ctx context.Context, subject, predicate string,
) ([]rdf.Statement, error) {
	return f(ctx, subject, predicate)
}

type WebStoreConfig struct {
	// Pod fetches the documents the statements live in.
	Pod pod.Client
	// Parser extracts statements from fetched documents.
	Parser rdf.Parser
	// Logger is the logger used by the store.
	Logger *zap.Logger
}

// WebStore is a statement index populated on demand from the web. A lookup
// for a subject loads the subject's document once and indexes everything it
// says; concurrent lookups against an unloaded document share a single
// fetch. Clear drops the whole index, which is wired to the session
// becoming inactive.
type WebStore struct {
	cfg       WebStoreConfig
	mu        sync.Mutex
	documents map[string]*document
}

type document struct {
	done       chan struct{}
	statements []rdf.Statement
	err        error
}

func OpenWebStore(cfg WebStoreConfig) *WebStore {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &WebStore{cfg: cfg, documents: make(map[string]*document)}
}

// FetchStatements implements Store.
func (s *WebStore) FetchStatements(
	ctx context.Context, subject, predicate string,
) ([]rdf.Statement, error) {
	doc, err := s.load(ctx, documentURI(subject))
	if err != nil {
		return nil, err
	}
	var matches []rdf.Statement
	for _, st := range doc {
		if st.Subject == subject && st.Predicate == predicate {
			matches = append(matches, st)
		}
	}
	return matches, nil
}

// Refresh re-fetches the given document, replacing its indexed statements.
// Used for containers whose listings change underneath us.
func (s *WebStore) Refresh(ctx context.Context, uri string) error {
	uri = documentURI(uri)
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()
	_, err := s.load(ctx, uri)
	return err
}

// Clear drops every indexed document.
func (s *WebStore) Clear() {
	s.mu.Lock()
	s.documents = make(map[string]*document)
	s.mu.Unlock()
}

func (s *WebStore) load(ctx context.Context, uri string) ([]rdf.Statement, error) {
	s.mu.Lock()
	if doc, ok := s.documents[uri]; ok {
		s.mu.Unlock()
		return doc.await(ctx)
	}
	// Register before fetching so concurrent lookups share this load.
	doc := &document{done: make(chan struct{})}
	s.documents[uri] = doc
	s.mu.Unlock()

	doc.statements, doc.err = s.fetch(ctx, uri)
	close(doc.done)
	if doc.err != nil {
		s.mu.Lock()
		if s.documents[uri] == doc {
			delete(s.documents, uri)
		}
		s.mu.Unlock()
	}
	return doc.statements, doc.err
}

func (s *WebStore) fetch(ctx context.Context, uri string) ([]rdf.Statement, error) {
	body, err := s.cfg.Pod.Get(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, "[graph] - fetching %s", uri)
	}
	statements, err := s.cfg.Parser.Parse(body)
	if err != nil {
		return nil, errors.Wrapf(err, "[graph] - parsing %s", uri)
	}
	s.cfg.Logger.Debug(
		"indexed document",
		zap.String("uri", uri),
		zap.Int("statements", len(statements)),
	)
	return statements, nil
}

func (d *document) await(ctx context.Context) ([]rdf.Statement, error) {
	select {
	case <-d.done:
		return d.statements, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// documentURI strips the fragment so lookups for hash-identified subjects
// land on their containing document.
func documentURI(subject string) string {
	if i := strings.Index(subject, "#"); i >= 0 {
		return subject[:i]
	}
	return subject
}
