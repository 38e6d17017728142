package db

import (
	"context"

	"github.com/RoyceAzure/lab/livesale/internal/domain/model"
)

// 分類與直播場次對引擎來說只是存在性檢查的協作者

type CategoryRepo struct {
	db *DbDao
}

func NewCategoryRepo(db *DbDao) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (s *CategoryRepo) CreateCategory(ctx context.Context, category *model.ProductCategory) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *CategoryRepo) CategoryExists(ctx context.Context, id, organizationID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProductCategory{}).
		Where("id = ? AND organization_id = ?", id, organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type LivestreamRepo struct {
	db *DbDao
}

func NewLivestreamRepo(db *DbDao) *LivestreamRepo {
	return &LivestreamRepo{db: db}
}

func (s *LivestreamRepo) CreateLivestream(ctx context.Context, livestream *model.Livestream) error {
	return s.db.WithContext(ctx).Create(livestream).Error
}

func (s *LivestreamRepo) LivestreamExists(ctx context.Context, id, organizationID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Livestream{}).
		Where("id = ? AND organization_id = ?", id, organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
