package db

import (
	"github.com/terraincognita07/flux/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModelRepository struct {
	database *gorm.DB
}

func NewModelRepository(database *gorm.DB) *ModelRepository {
	return &ModelRepository{database: database}
}

// Upsert stores model as the single trained model of its profile, replacing
// any earlier one.
func (repo *ModelRepository) Upsert(model *models.TrainedModel) error {
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"dataset_id", "params", "updated_at"}),
	}).Create(model).Error
}

func (repo *ModelRepository) FindByProfile(profile string) (models.TrainedModel, bool, error) {
	model := models.TrainedModel{}
	result := repo.database.Where("profile = ?", profile).Limit(1).Find(&model)
	if result.Error != nil {
		return models.TrainedModel{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.TrainedModel{}, false, nil
	}
	return model, true, nil
}
