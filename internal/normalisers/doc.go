// Package normalisers provides implementations of the Normaliser interface
// for the page formats sercha-rag ingests, and the Registry that dispatches
// between them by MIME type.
//
// Normalisers are registered with the Registry at startup.
package normalisers
