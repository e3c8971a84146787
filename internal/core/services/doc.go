// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The services hold no mutable state besides their EngineSettings, which
// can be swapped atomically at runtime through SetSettings. Optional ports
// (keyword index, vector index, embedding service) may be nil; the services
// degrade to whatever retrieval channel remains.
package services
