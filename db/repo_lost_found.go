package db

import (
	"context"
	"errors"
	"fmt"

	"campuslink/models"

	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("item not found")

func (r *Repo) CreateItem(ctx context.Context, it *models.LostFoundItem) error {
	if err := r.DB.WithContext(ctx).Omit("Reporter").Create(it).Error; err != nil {
		return fmt.Errorf("insert lost/found item: %w", err)
	}
	return nil
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.LostFoundItem, error) {
	var it models.LostFoundItem
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

// ListItems returns every report, newest first.
func (r *Repo) ListItems(ctx context.Context) ([]models.LostFoundItem, error) {
	var items []models.LostFoundItem
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *Repo) ListItemsByReporter(ctx context.Context, reporterID string) ([]models.LostFoundItem, error) {
	var items []models.LostFoundItem
	err := r.DB.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListItemsByType loads all reports of one type, oldest first, with their
// reporter so the caller can reach the reporter's email. No pagination.
func (r *Repo) ListItemsByType(ctx context.Context, t models.ItemType) ([]models.LostFoundItem, error) {
	var items []models.LostFoundItem
	err := r.DB.WithContext(ctx).
		Preload("Reporter").
		Where("type = ?", t).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list %s items: %w", t, err)
	}
	return items, nil
}

// ItemPatch 中为空的字段保持原值
type ItemPatch struct {
	Type           models.ItemType
	Item           string
	Category       string
	Description    string
	Location       string
	ImageURL       string
	GeminiAnalysis string
}

func (p ItemPatch) apply(it *models.LostFoundItem) {
	if p.Type != "" {
		it.Type = p.Type
	}
	if p.Item != "" {
		it.Item = p.Item
	}
	if p.Category != "" {
		it.Category = p.Category
	}
	if p.Description != "" {
		it.Description = p.Description
	}
	if p.Location != "" {
		it.Location = p.Location
	}
	if p.ImageURL != "" {
		it.ImageURL = p.ImageURL
	}
	if p.GeminiAnalysis != "" {
		it.GeminiAnalysis = p.GeminiAnalysis
	}
}

func (r *Repo) UpdateItem(ctx context.Context, it *models.LostFoundItem, p ItemPatch) error {
	p.apply(it)
	return r.DB.WithContext(ctx).Omit("Reporter").Save(it).Error
}

func (r *Repo) DeleteItem(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.LostFoundItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
