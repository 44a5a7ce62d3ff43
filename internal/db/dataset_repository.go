package db

import (
	"github.com/terraincognita07/flux/internal/models"
	"gorm.io/gorm"
)

type DatasetRepository struct {
	database *gorm.DB
}

func NewDatasetRepository(database *gorm.DB) *DatasetRepository {
	return &DatasetRepository{database: database}
}

func (repo *DatasetRepository) Create(dataset *models.Dataset) error {
	return repo.database.Create(dataset).Error
}

// LatestForProfile returns the most recently imported dataset of profile.
func (repo *DatasetRepository) LatestForProfile(profile string) (models.Dataset, bool, error) {
	dataset := models.Dataset{}
	result := repo.database.
		Where("profile = ?", profile).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&dataset)
	if result.Error != nil {
		return models.Dataset{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Dataset{}, false, nil
	}
	return dataset, true, nil
}

func (repo *DatasetRepository) ListProfiles() ([]string, error) {
	profiles := make([]string, 0)
	if err := repo.database.
		Model(&models.Dataset{}).
		Distinct("profile").
		Order("profile ASC").
		Pluck("profile", &profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
