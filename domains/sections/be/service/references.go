package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

// Reference points a references column at another record.
type Reference struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
	Name *string   `json:"name,omitempty"`
}

// ReferenceValidation lists the references whose target is missing or deleted.
type ReferenceValidation struct {
	Valid            bool        `json:"valid"`
	BrokenReferences []Reference `json:"brokenReferences"`
}

type referencesContent struct {
	References []Reference `json:"references"`
}

func decodeReferences(data json.RawMessage) ([]Reference, error) {
	var content referencesContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode references: %w", err)
	}
	return content.References, nil
}

// hostPageType maps a reference type onto the page_type its sections are stored under.
// Locations never host sections.
func hostPageType(refType string) (string, bool) {
	switch refType {
	case "content_page":
		return PageTypeCustom, true
	case PageTypeActivity, PageTypeEvent, PageTypeAccommodation:
		return refType, true
	default:
		return "", false
	}
}

func (s *service) ValidateReferences(ctx context.Context, refs []Reference) (ReferenceValidation, error) {
	broken := make([]Reference, 0)
	for _, ref := range refs {
		exists, err := s.repo.ReferenceExists(ctx, ref.Type, ref.ID)
		if err != nil {
			if errors.Is(err, persistence.ErrUnknownReferenceType) {
				broken = append(broken, ref)
				continue
			}
			return ReferenceValidation{}, result.Database(err)
		}
		if !exists {
			broken = append(broken, ref)
		}
	}
	return ReferenceValidation{Valid: len(broken) == 0, BrokenReferences: broken}, nil
}

// DetectCircularReferences walks the reference graph depth-first starting from refs.
// It reports a cycle when a reference points back at pageID or at a node still on the walk stack.
func (s *service) DetectCircularReferences(ctx context.Context, pageID uuid.UUID, refs []Reference) (bool, error) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(ref Reference) (bool, error)
	visit = func(ref Reference) (bool, error) {
		if ref.ID == pageID {
			return true, nil
		}

		key := ref.Type + ":" + ref.ID.String()
		if onStack[key] {
			return true, nil
		}
		if visited[key] {
			return false, nil
		}
		visited[key] = true
		onStack[key] = true
		defer delete(onStack, key)

		pageType, ok := hostPageType(ref.Type)
		if !ok {
			return false, nil
		}

		columns, err := s.repo.ReferenceData(ctx, pageType, ref.ID)
		if err != nil {
			return false, result.Database(err)
		}
		for _, data := range columns {
			nested, err := decodeReferences(data)
			if err != nil {
				continue
			}
			for _, next := range nested {
				cyclic, err := visit(next)
				if err != nil || cyclic {
					return cyclic, err
				}
			}
		}
		return false, nil
	}

	for _, ref := range refs {
		cyclic, err := visit(ref)
		if err != nil || cyclic {
			return cyclic, err
		}
	}
	return false, nil
}
