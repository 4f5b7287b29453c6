// Package memory implements a persistent, queryable memory store for
// conversational agents, retrieved through a hybrid of lexical and
// vector search.
//
// Entries are content-addressed: identical content always derives the
// same MemID, so re-inserting known content is idempotent at the
// content layer while metadata identities stay distinct.
//
// Retrieval pipeline:
//   - KeywordRanker: TF-IDF term extraction, disjunctive lexical rank,
//     softmax normalization, token-budget prefix cut
//   - SemanticRanker: embedding cosine distance, min-max normalization,
//     the same budget policy
//   - Combine: weighted blend of the two normalized lists
//   - Trim: parent-supersedes-derived removal, then a strict
//     score-ordered prefix cut to the final budget
//
// The DuplicateGuard protects stored conversation summaries from
// accidental duplication using the same distance vocabulary plus a
// longest-common-substring ratio; unlike retrieval it fails open.
//
// Backends:
//   - Store: hybrid persistence (sqlite lexical/metadata + chromem
//     vectors in this SDK; swap for a server-grade pair in production)
//   - Embedder: text-to-vector conversion (mock for tests, cached ONNX
//     for local use, an API embedder in production)
package memory
