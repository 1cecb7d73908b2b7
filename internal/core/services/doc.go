// Package services wires the driven ports together into the use cases that
// the driving adapters call.
//
// A question flows Retriever -> GenerationGateway inside AskService. Imports
// are queued by IngestionController and run one at a time in the background.
package services
