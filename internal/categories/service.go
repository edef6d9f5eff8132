package categories

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tradepost/tradepost/internal/shared"
)

// Node is a category plus its children, for tree responses.
type Node struct {
	Category
	Children []*Node
}

// Service handles taxonomy business rules.
type Service struct {
	repo      RepositoryPort
	title     cases.Caser
	treeGroup singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, title: cases.Title(language.English)}
}

// Create adds a category node. The name is title-cased and the slug derived
// from it; duplicate slugs surface as a conflict.
func (s *Service) Create(ctx context.Context, draft Draft) (Category, error) {
	if err := s.normalize(ctx, &draft); err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, draft, Slugify(draft.Name))
}

// Update rewrites a category node.
func (s *Service) Update(ctx context.Context, id int64, draft Draft) (Category, error) {
	if err := s.normalize(ctx, &draft); err != nil {
		return Category{}, err
	}
	if draft.ParentID != nil && *draft.ParentID == id {
		return Category{}, fmt.Errorf("%w: category cannot be its own parent", shared.ErrInvalidInput)
	}
	return s.repo.Update(ctx, id, draft, Slugify(draft.Name))
}

// Delete removes an empty leaf category. Nodes with children or listings
// are refused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: category has subcategories", shared.ErrInvalidInput)
	}
	count, err := s.repo.CountAds(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: category has listings", shared.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}

// Get fetches one category.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug fetches one category by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Tree assembles the full taxonomy as nested nodes. Concurrent callers
// share one assembly. Orphans whose parent is missing are attached at the
// root rather than dropped.
func (s *Service) Tree(ctx context.Context) ([]*Node, error) {
	resultChan := s.treeGroup.DoChan("tree", func() (any, error) {
		return s.buildTree(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*Node), nil
	}
}

func (s *Service) buildTree(ctx context.Context) ([]*Node, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Node, len(all))
	for _, cat := range all {
		byID[cat.ID] = &Node{Category: cat}
	}
	var roots []*Node
	for _, cat := range all {
		node := byID[cat.ID]
		if cat.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*cat.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

// Attributes returns the attribute definitions of a category.
func (s *Service) Attributes(ctx context.Context, categoryID int64) ([]AttributeDefinition, error) {
	if _, err := s.repo.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.ListAttributes(ctx, categoryID)
}

// AddAttribute defines a structured field on a category.
func (s *Service) AddAttribute(ctx context.Context, def AttributeDefinition) (AttributeDefinition, error) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return AttributeDefinition{}, fmt.Errorf("%w: attribute name required", shared.ErrInvalidInput)
	}
	switch def.Kind {
	case AttributeText, AttributeNumber, AttributeBool:
		def.Options = nil
	case AttributeEnum:
		if len(def.Options) == 0 {
			return AttributeDefinition{}, fmt.Errorf("%w: enum attribute needs options", shared.ErrInvalidInput)
		}
	default:
		return AttributeDefinition{}, fmt.Errorf("%w: unknown attribute kind %q", shared.ErrInvalidInput, def.Kind)
	}
	if _, err := s.repo.Get(ctx, def.CategoryID); err != nil {
		return AttributeDefinition{}, err
	}
	return s.repo.CreateAttribute(ctx, def)
}

// RemoveAttribute deletes an attribute definition.
func (s *Service) RemoveAttribute(ctx context.Context, id int64) error {
	return s.repo.DeleteAttribute(ctx, id)
}

func (s *Service) normalize(ctx context.Context, draft *Draft) error {
	draft.Name = s.title.String(strings.TrimSpace(draft.Name))
	if draft.Name == "" {
		return fmt.Errorf("%w: category name required", shared.ErrInvalidInput)
	}
	if draft.ParentID != nil {
		if _, err := s.repo.Get(ctx, *draft.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
	}
	return nil
}

// Slugify lowercases a name and collapses non-alphanumeric runs into single
// hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
