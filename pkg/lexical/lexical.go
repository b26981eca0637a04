// Package lexical implements an in-memory inverted index with Okapi BM25
// scoring for keyword search over memory items.
//
// Tokenization defaults to lowercase whitespace splitting. That is a known
// limitation for CJK text, which has no whitespace word boundaries; a
// language-aware Tokenizer can be supplied without changing the contract.
package lexical

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// Standard Okapi BM25 parameters.
const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// Tokenizer splits content into index terms.
type Tokenizer func(string) []string

// DefaultTokenizer lowercases and splits on Unicode whitespace. Punctuation
// attached to a word stays attached; this matches simple keyword matching
// and keeps the index deterministic.
func DefaultTokenizer(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// Document is the unit of indexing.
type Document struct {
	ID       string
	Content  string
	Scope    string
	Metadata types.MemoryMetadata
}

type indexedDoc struct {
	Document
	terms  map[string]int // term -> frequency within the document
	length int            // token count
	seq    int            // corpus insertion order, used for tie-breaking
}

// Index is a BM25-scored inverted index. All methods are safe for
// concurrent use; readers observe either the state before or after any
// mutation, never a partial one.
type Index struct {
	mu        sync.RWMutex
	docs      map[string]*indexedDoc
	postings  map[string]map[string]struct{} // term -> set of doc ids
	totalLen  int
	nextSeq   int
	k1        float64
	b         float64
	tokenizer Tokenizer
}

// Option configures an Index.
type Option func(*Index)

// WithTokenizer substitutes a language-aware tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(idx *Index) { idx.tokenizer = t }
}

// WithParameters overrides the BM25 k1 and b constants.
func WithParameters(k1, b float64) Option {
	return func(idx *Index) {
		idx.k1 = k1
		idx.b = b
	}
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	idx := &Index{
		docs:      make(map[string]*indexedDoc),
		postings:  make(map[string]map[string]struct{}),
		k1:        defaultK1,
		b:         defaultB,
		tokenizer: DefaultTokenizer,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocuments replaces the index contents with docs in a single
// exclusive operation (build-from-scratch semantics).
func (idx *Index) IndexDocuments(docs []Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make(map[string]*indexedDoc, len(docs))
	idx.postings = make(map[string]map[string]struct{})
	idx.totalLen = 0
	idx.nextSeq = 0
	for _, doc := range docs {
		idx.addLocked(doc)
	}
}

// Add inserts or replaces one document incrementally.
func (idx *Index) Add(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(doc.ID)
	idx.addLocked(doc)
}

// Remove deletes one document. Removing an absent id is a no-op.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(id)
}

// Contains reports whether id is indexed.
func (idx *Index) Contains(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, ok := idx.docs[id]
	return ok
}

// IDs returns every indexed document id, sorted.
func (idx *Index) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.docs))
	for id := range idx.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of indexed documents.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.docs)
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make(map[string]*indexedDoc)
	idx.postings = make(map[string]map[string]struct{})
	idx.totalLen = 0
	idx.nextSeq = 0
}

func (idx *Index) addLocked(doc Document) {
	tokens := idx.tokenizer(doc.Content)
	terms := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		terms[tok]++
	}

	d := &indexedDoc{
		Document: doc,
		terms:    terms,
		length:   len(tokens),
		seq:      idx.nextSeq,
	}
	idx.nextSeq++
	idx.docs[doc.ID] = d
	idx.totalLen += d.length

	for term := range terms {
		set, ok := idx.postings[term]
		if !ok {
			set = make(map[string]struct{})
			idx.postings[term] = set
		}
		set[doc.ID] = struct{}{}
	}
}

func (idx *Index) removeLocked(id string) {
	d, ok := idx.docs[id]
	if !ok {
		return
	}
	delete(idx.docs, id)
	idx.totalLen -= d.length
	for term := range d.terms {
		set := idx.postings[term]
		delete(set, id)
		if len(set) == 0 {
			delete(idx.postings, term)
		}
	}
}

// Search returns up to k candidates scored with BM25, sorted descending by
// score with ties broken by corpus insertion order. Searching an empty
// index returns an empty list.
func (idx *Index) Search(query string, k int, minScore float64) []types.SearchCandidate {
	return idx.SearchScoped(query, "", k, minScore)
}

// SearchScoped restricts the search to documents in the given scope before
// scoring. An empty scope matches every document. Scope is a precondition
// on the candidate set, not a post-filter: out-of-scope documents never
// consume a result slot.
func (idx *Index) SearchScoped(query, scope string, k int, minScore float64) []types.SearchCandidate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 || k <= 0 {
		return []types.SearchCandidate{}
	}

	queryTerms := idx.tokenizer(query)
	if len(queryTerms) == 0 {
		return []types.SearchCandidate{}
	}

	n := 0
	for _, d := range idx.docs {
		if scope == "" || d.Scope == scope {
			n++
		}
	}
	if n == 0 {
		return []types.SearchCandidate{}
	}
	avgLen := float64(idx.scopeTotalLen(scope)) / float64(n)

	scores := make(map[string]float64)
	for _, term := range queryTerms {
		set, ok := idx.postings[term]
		if !ok {
			continue
		}

		df := 0
		for id := range set {
			if scope == "" || idx.docs[id].Scope == scope {
				df++
			}
		}
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))

		for id := range set {
			d := idx.docs[id]
			if scope != "" && d.Scope != scope {
				continue
			}
			tf := float64(d.terms[term])
			lenNorm := 1 - idx.b + idx.b*float64(d.length)/avgLen
			scores[id] += idf * tf * (idx.k1 + 1) / (tf + idx.k1*lenNorm)
		}
	}

	matched := make([]*indexedDoc, 0, len(scores))
	for id, score := range scores {
		if score >= minScore {
			matched = append(matched, idx.docs[id])
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		si, sj := scores[matched[i].ID], scores[matched[j].ID]
		if si != sj {
			return si > sj
		}
		return matched[i].seq < matched[j].seq
	})

	if len(matched) > k {
		matched = matched[:k]
	}
	candidates := make([]types.SearchCandidate, len(matched))
	for i, d := range matched {
		candidates[i] = types.SearchCandidate{
			ID:             d.ID,
			Content:        d.Content,
			RelevanceScore: scores[d.ID],
			Rank:           i + 1,
			Source:         types.SourceLexical,
			Metadata:       d.Metadata,
		}
	}
	return candidates
}

func (idx *Index) scopeTotalLen(scope string) int {
	if scope == "" {
		return idx.totalLen
	}
	total := 0
	for _, d := range idx.docs {
		if d.Scope == scope {
			total += d.length
		}
	}
	return total
}
