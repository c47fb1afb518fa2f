// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the ask/ingest flows to function:
//
//   - Ingester: Loads a file and runs the transformation pipeline
//   - DocumentRetriever: Similarity retrieval plus the index write path
//   - AnswerGenerator: Prompt construction and LLM dispatch
//   - VectorStore: Vector persistence and filtered similarity search
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Text completion
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - InteractionStore: Audit log of question/answer pairs. Failures here
//     never abort the ask flow.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
