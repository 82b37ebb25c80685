package persistence

import (
	"context"
	"errors"

	"WSpeicher/internal/modules/nutzer/domain/entity"
	"WSpeicher/internal/modules/nutzer/domain/repository"

	"gorm.io/gorm"
)

type kundeRepositoryImpl struct {
	db *gorm.DB
}

func NewKundeRepository(db *gorm.DB) repository.KundeRepository {
	return &kundeRepositoryImpl{db: db}
}

func (r *kundeRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.Kunde, *entity.Adresse, error) {
	var k entity.Kunde
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if k.AdresseId == nil {
		return &k, nil, nil
	}
	var a entity.Adresse
	err = r.db.WithContext(ctx).Where("id = ?", *k.AdresseId).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &k, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &k, &a, nil
}
