package services

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// Placeholders substituted for missing fields so downstream code and
// clients never see blank titles or previews.
const (
	// PlaceholderTitle replaces a missing document title.
	PlaceholderTitle = "(untitled)"

	// PlaceholderPreview replaces a missing content preview.
	PlaceholderPreview = "(no content)"

	// previewLength is the maximum preview excerpt length.
	previewLength = 200
)

// Enricher canonicalises retrieved candidates. Ingestion writers are
// inconsistent: the same hierarchy field may arrive as a typed value,
// a loosely typed map entry, or a delimited string. The enricher folds
// every representation into one canonical EnrichedDocument so nothing
// downstream ever touches the heterogeneous input.
//
// Enrichment is pure and idempotent: running it over already-canonical
// documents is a no-op.
type Enricher struct{}

// NewEnricher creates a new enricher.
func NewEnricher() *Enricher {
	return &Enricher{}
}

// Enrich canonicalises each candidate. Malformed candidates yield a
// MalformedDocumentError in the second return and are excluded, without
// failing the rest (per-item isolation).
func (e *Enricher) Enrich(docs []domain.Document) ([]domain.EnrichedDocument, []error) {
	enriched := make([]domain.EnrichedDocument, 0, len(docs))
	var errs []error

	for i := range docs {
		ed, err := e.enrichOne(docs[i])
		if err != nil {
			logger.Warn("Enrich: dropping candidate %d: %v", i, err)
			errs = append(errs, err)
			continue
		}
		enriched = append(enriched, ed)
	}

	logger.Debug("Enrich: %d candidates canonicalised, %d malformed", len(enriched), len(errs))
	return enriched, errs
}

func (e *Enricher) enrichOne(doc domain.Document) (domain.EnrichedDocument, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return domain.EnrichedDocument{}, &domain.MalformedDocumentError{Reason: "missing document id"}
	}
	if len(doc.Vector) == 0 {
		return domain.EnrichedDocument{}, &domain.MalformedDocumentError{
			DocumentID: doc.ID,
			Reason:     "missing embedding vector",
		}
	}

	// Title and content may live on the record or only in the raw map,
	// depending on which ingestion path wrote the document.
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = rawString(doc.Raw, "title")
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = PlaceholderTitle
	}
	if strings.TrimSpace(doc.Content) == "" {
		if c := rawString(doc.Raw, "content"); c != "" {
			doc.Content = c
		} else {
			doc.Content = rawString(doc.Raw, "text")
		}
	}

	return domain.EnrichedDocument{
		Document:   doc,
		Preview:    makePreview(doc.Content),
		Hierarchy:  hierarchyFrom(doc),
		Attachment: attachmentFrom(doc),
	}, nil
}

// makePreview returns a bounded, never-empty excerpt. The cut backs up
// to a rune boundary so multi-byte content stays valid UTF-8.
func makePreview(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return PlaceholderPreview
	}
	if len(content) > previewLength {
		cut := previewLength
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		return content[:cut] + "..."
	}
	return content
}

// hierarchyFrom assembles the hierarchy node from raw metadata.
// Breadcrumbs arrive either as a list of titles or as a single
// delimited string ("A > B > C"); both fold to the same shape.
func hierarchyFrom(doc domain.Document) domain.HierarchyNode {
	node := domain.HierarchyNode{DocumentID: doc.ID}

	if parent := rawString(doc.Raw, "parent_id"); parent != "" {
		node.ParentID = &parent
	}

	node.Breadcrumb = rawStringSlice(doc.Raw, "breadcrumb")
	if len(node.Breadcrumb) == 0 {
		if crumb := rawString(doc.Raw, "breadcrumb"); crumb != "" {
			for _, part := range strings.Split(crumb, ">") {
				if p := strings.TrimSpace(part); p != "" {
					node.Breadcrumb = append(node.Breadcrumb, p)
				}
			}
		}
	}

	if depth, ok := rawInt(doc.Raw, "depth"); ok && depth >= 0 {
		node.Depth = depth
	} else {
		node.Depth = len(node.Breadcrumb)
	}

	if count, ok := rawInt(doc.Raw, "children_count"); ok && count >= 0 {
		node.ChildrenCount = count
	}

	return node
}

// attachmentFrom assembles the attachment reference when the candidate
// represents a file attachment. Accepts both the nested map written by
// the wiki connector and the flat keys written by the file pipeline.
func attachmentFrom(doc domain.Document) *domain.AttachmentRef {
	if nested, ok := doc.Raw["attachment"].(map[string]any); ok {
		ref := &domain.AttachmentRef{
			AttachmentID:     rawString(nested, "id"),
			ParentDocumentID: rawString(nested, "parent_document_id"),
			Filename:         rawString(nested, "filename"),
			MIMEType:         rawString(nested, "mime_type"),
			Author:           rawString(nested, "author"),
		}
		if size, ok := rawInt(nested, "size_bytes"); ok {
			ref.SizeBytes = int64(size)
		}
		if ref.AttachmentID != "" || ref.Filename != "" {
			return ref
		}
		return nil
	}

	id := rawString(doc.Raw, "attachment_id")
	if id == "" {
		return nil
	}
	ref := &domain.AttachmentRef{
		AttachmentID:     id,
		ParentDocumentID: rawString(doc.Raw, "attachment_parent_id"),
		Filename:         rawString(doc.Raw, "filename"),
		MIMEType:         rawString(doc.Raw, "mime_type"),
		Author:           rawString(doc.Raw, "attachment_author"),
	}
	if size, ok := rawInt(doc.Raw, "size_bytes"); ok {
		ref.SizeBytes = int64(size)
	}
	return ref
}

// --- loosely typed metadata coercion ---

func rawString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func rawStringSlice(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func rawInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	// JSON decoding yields float64, some stores yield int64.
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
