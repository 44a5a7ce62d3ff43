package db

import "gorm.io/gorm"

type Repositories struct {
	Datasets *DatasetRepository
	Models   *ModelRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Datasets: NewDatasetRepository(database),
		Models:   NewModelRepository(database),
	}
}
