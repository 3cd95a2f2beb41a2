// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): language chunkers, the repository walker,
// embedding and LLM collaborators, and the vector store.
package driven
