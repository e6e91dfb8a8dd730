package domain

// HierarchyNode describes a document's position in its source hierarchy.
// It is assembled per query from metadata the ingestion pipeline stored
// alongside the vector; nothing here is persisted by the engine.
type HierarchyNode struct {
	// DocumentID is the document this node describes.
	DocumentID string

	// ParentID is the parent document, if any.
	ParentID *string

	// Breadcrumb is the ordered list of ancestor titles, root first.
	Breadcrumb []string

	// Depth is the number of ancestors. Zero for roots.
	Depth int

	// ChildrenCount is the number of direct children known upstream.
	ChildrenCount int
}

// IsRoot returns true if the node has no parent.
func (n HierarchyNode) IsRoot() bool {
	return n.ParentID == nil
}

// AttachmentRef links a file attachment to its parent document.
// Present only when the candidate represents an attachment.
type AttachmentRef struct {
	// AttachmentID is the attachment's own identifier.
	AttachmentID string

	// ParentDocumentID is the document the file is attached to.
	ParentDocumentID string

	// Filename is the original file name.
	Filename string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// SizeBytes is the file size, zero if unknown.
	SizeBytes int64

	// Author is the uploader, if known.
	Author string
}
