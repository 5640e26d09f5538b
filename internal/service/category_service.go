package service

import (
	"fmt"
	"strings"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 20

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	ParentID    *uint
	Name        string
	Slug        string
	Description string
	SortOrder   int
	IsActive    *bool
}

// List 获取分类列表
func (s *CategoryService) List(filter repository.CategoryListFilter) ([]models.Category, error) {
	return s.repo.List(filter)
}

// Get 获取分类
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create 创建分类，未指定 slug 时由名称生成
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := s.checkParent(0, input.ParentID); err != nil {
		return nil, err
	}
	categorySlug, err := s.resolveSlug(input.Slug, name, 0)
	if err != nil {
		return nil, err
	}

	category := models.Category{
		ParentID:    input.ParentID,
		Name:        name,
		Slug:        categorySlug,
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Create(&category); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := s.checkParent(category.ID, input.ParentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Slug) != "" && input.Slug != category.Slug {
		categorySlug, err := s.resolveSlug(input.Slug, name, category.ID)
		if err != nil {
			return nil, err
		}
		category.Slug = categorySlug
	}

	category.ParentID = input.ParentID
	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	category.SortOrder = input.SortOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Update(category); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) checkParent(selfID uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return &FieldError{Field: "parent", Message: "category cannot be its own parent"}
	}
	parent, err := s.repo.GetByID(*parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrCategoryNotFound
	}
	return nil
}

// resolveSlug 显式 slug 冲突直接报错，由名称生成的 slug 自动追加序号
func (s *CategoryService) resolveSlug(explicit, name string, selfID uint) (string, error) {
	return resolveUniqueSlug(explicit, name, func(candidate string) (bool, error) {
		existing, err := s.repo.GetBySlug(candidate)
		if err != nil {
			return false, err
		}
		return existing != nil && existing.ID != selfID, nil
	})
}

func resolveUniqueSlug(explicit, name string, taken func(string) (bool, error)) (string, error) {
	if raw := strings.TrimSpace(explicit); raw != "" {
		candidate := slug.Make(raw)
		if !slug.IsSlug(candidate) {
			return "", &FieldError{Field: "slug", Message: "slug is invalid"}
		}
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrSlugConflict
		}
		return candidate, nil
	}
	base := slug.Make(name)
	if base == "" {
		return "", &FieldError{Field: "slug", Message: "slug cannot be derived from name"}
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", ErrSlugConflict
}
