// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The conflict-analysis pipeline runs retrieval, enrichment, clustering,
// and prioritisation synchronously; only the budgeted analyzer fans out
// to concurrent judgment calls.
package services
