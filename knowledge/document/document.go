//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package document defines the document representation used by the
// knowledge base.
package document

import "time"

// ScopeCompany marks documents visible to every employee. Any other owner
// scope is an employee ID and restricts the document to that employee.
const ScopeCompany = "company"

// Document represents a knowledge base document or a chunk of one.
type Document struct {
	// ID is the unique identifier.
	ID string `json:"id"`
	// Name is a human-readable title.
	Name string `json:"name,omitempty"`
	// Content is the text body.
	Content string `json:"content"`
	// OwnerScope restricts visibility: ScopeCompany for shared policy
	// documents, or an employee ID for personal records.
	OwnerScope string `json:"owner_scope"`
	// Metadata holds arbitrary source attributes.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the document was created.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsEmpty checks if the document has no content.
func (d *Document) IsEmpty() bool {
	return d == nil || d.Content == ""
}

// Clone creates a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Metadata != nil {
		clone.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
