package gorm

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/motoki317/sc"
	"gorm.io/gorm"

	"github.com/taskflow-dev/taskflow/event"
	"github.com/taskflow-dev/taskflow/model"
	"github.com/taskflow-dev/taskflow/repository"
)

var _ repository.UserRepository = (*userRepository)(nil)

type userRepository struct {
	db    *gorm.DB
	hub   *hub.Hub
	users *sc.Cache[uuid.UUID, *model.User]
}

func makeUserRepository(db *gorm.DB, hub *hub.Hub) *userRepository {
	r := &userRepository{db: db, hub: hub}
	r.users = sc.NewMust(r.getUser, 1*time.Hour, 1*time.Hour)
	return r
}

func (r *userRepository) getUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, &model.User{ID: id}).Error; err != nil {
		return nil, convertError(err)
	}
	return &user, nil
}

// CreateUser implements UserRepository interface.
func (r *userRepository) CreateUser(args repository.CreateUserArgs) (*model.User, error) {
	user := &model.User{
		ID:        uuid.Must(uuid.NewV7()),
		Username:  args.Username,
		FirstName: args.FirstName,
		LastName:  args.LastName,
		AvatarURL: args.AvatarURL,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where(&model.User{Username: args.Username}).Limit(1).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return repository.ErrAlreadyExists
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, convertError(err)
	}
	r.publishUserCreated(user)
	return user, nil
}

func (r *userRepository) publishUserCreated(user *model.User) {
	r.hub.Publish(hub.Message{
		Name: event.UserCreated,
		Fields: hub.Fields{
			"user_id": user.ID,
			"user":    user,
		},
	})
}

// GetUser implements UserRepository interface.
func (r *userRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if id == uuid.Nil {
		return nil, repository.ErrNilID
	}
	return r.users.Get(ctx, id)
}

// GetUserByUsername implements UserRepository interface.
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, &model.User{Username: username}).Error; err != nil {
		return nil, convertError(err)
	}
	return &user, nil
}
