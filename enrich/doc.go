// Package enrich ranks excerpts by relevance to a focus query before they
// are spent on model calls. Two rankers are provided: a keyword overlap
// ranker that needs no external service, and an embedding ranker scoring
// by cosine similarity. TopN then selects the excerpts worth analyzing.
package enrich
