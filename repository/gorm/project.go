package gorm

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"gorm.io/gorm"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/repository"
)

var _ repository.ProjectRepository = (*projectRepository)(nil)

type projectRepository struct {
	db  *gorm.DB
	hub *hub.Hub
}

func makeProjectRepository(db *gorm.DB, hub *hub.Hub) *projectRepository {
	return &projectRepository{db: db, hub: hub}
}

// GetProject implements ProjectRepository interface.
func (r *projectRepository) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	if id == uuid.Nil {
		return nil, repository.ErrNilID
	}
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, &model.Project{ID: id}).Error; err != nil {
		return nil, convertError(err)
	}
	return &project, nil
}

// AddProjectMember implements ProjectRepository interface.
func (r *projectRepository) AddProjectMember(projectID, userID uuid.UUID, role string) error {
	if projectID == uuid.Nil || userID == uuid.Nil {
		return repository.ErrNilID
	}
	var added bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.ProjectMember{}).
			Where(&model.ProjectMember{ProjectID: projectID, UserID: userID}).
			Limit(1).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&model.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			Role:      role,
			JoinedAt:  time.Now(),
		}).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return err
	}
	if added {
		r.publishMemberAdded(projectID, userID)
	}
	return nil
}

// RemoveProjectMember implements ProjectRepository interface.
func (r *projectRepository) RemoveProjectMember(projectID, userID uuid.UUID) error {
	if projectID == uuid.Nil || userID == uuid.Nil {
		return repository.ErrNilID
	}
	result := r.db.
		Delete(&model.ProjectMember{}, &model.ProjectMember{ProjectID: projectID, UserID: userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		r.publishMemberRemoved(projectID, userID)
	}
	return nil
}

func (r *projectRepository) publishMemberAdded(projectID, userID uuid.UUID) {
	r.hub.Publish(hub.Message{
		Name: event.ProjectMemberAdded,
		Fields: hub.Fields{
			"project_id": projectID,
			"user_id":    userID,
		},
	})
}

func (r *projectRepository) publishMemberRemoved(projectID, userID uuid.UUID) {
	r.hub.Publish(hub.Message{
		Name: event.ProjectMemberRemoved,
		Fields: hub.Fields{
			"project_id": projectID,
			"user_id":    userID,
		},
	})
}

// IsProjectMember implements ProjectRepository interface.
func (r *projectRepository) IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	if projectID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProjectMember{}).
		Where(&model.ProjectMember{ProjectID: projectID, UserID: userID}).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProjectMemberIDs implements ProjectRepository interface.
func (r *projectRepository) GetProjectMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	if projectID == uuid.Nil {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.ProjectMember{}).
		Where(&model.ProjectMember{ProjectID: projectID}).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
