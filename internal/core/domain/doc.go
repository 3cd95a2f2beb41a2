// Package domain contains the core business entities for code question
// answering: source files, structural chunks, index entries, and retrieval
// results. It has no dependencies on adapters or infrastructure.
package domain
