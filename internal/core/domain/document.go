package domain

import "time"

// DocumentMetadata holds the normalised metadata fields shared by all
// source types.
type DocumentMetadata struct {
	// Author is the document author, if known.
	Author string

	// URL is the canonical link back to the source system.
	URL string

	// CreatedAt is when the document was created upstream.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified upstream.
	UpdatedAt time.Time
}

// Document represents a candidate returned by the vector store for a query.
// It is read-only within this engine: the vector store owns the record,
// the engine only analyses it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title. May be empty on arrival;
	// the enricher substitutes a placeholder.
	Title string

	// SourceType identifies the upstream system (git, wiki, issue, file).
	SourceType SourceType

	// Content is the text content of the chunk or document.
	Content string

	// Vector is the embedding stored alongside the document.
	Vector []float32

	// Metadata is the normalised metadata, when the store returned a
	// structured record.
	Metadata DocumentMetadata

	// Raw holds loosely typed metadata as stored by the ingestion
	// pipeline. Hierarchy and attachment fields live here. Upstream
	// writers are inconsistent about shapes, so the enricher tolerates
	// mixed representations of the same key.
	Raw map[string]any
}

// SourceType identifies the upstream system a document came from.
type SourceType string

// Known source types.
const (
	// SourceTypeGit is a git repository file or commit.
	SourceTypeGit SourceType = "git"

	// SourceTypeWiki is a wiki page.
	SourceTypeWiki SourceType = "wiki"

	// SourceTypeIssue is an issue tracker item.
	SourceTypeIssue SourceType = "issue"

	// SourceTypeFile is a local or converted file.
	SourceTypeFile SourceType = "file"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeGit, SourceTypeWiki, SourceTypeIssue, SourceTypeFile:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// EnrichedDocument is the canonical per-query view of a candidate.
// The enricher produces it exactly once; every downstream stage depends
// only on this shape, never on the heterogeneous input.
type EnrichedDocument struct {
	// Document is the underlying candidate.
	Document Document

	// Preview is a short, never-empty content excerpt.
	Preview string

	// Hierarchy describes the document's position in its source tree.
	Hierarchy HierarchyNode

	// Attachment is set when the document represents a file attachment.
	Attachment *AttachmentRef
}

// Title returns the canonical title, never empty.
func (d EnrichedDocument) Title() string {
	return d.Document.Title
}
