package repository

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/taskflow-dev/taskflow/model"
)

// CreateUserArgs ユーザー作成引数
type CreateUserArgs struct {
	Username  string
	FirstName string
	LastName  string
	AvatarURL string
}

// UserRepository ユーザーリポジトリ
type UserRepository interface {
	// CreateUser ユーザーを作成します
	//
	// 成功した場合、ユーザーとnilを返します。
	// Usernameが重複する場合、ErrAlreadyExistsを返します。
	// DBによるエラーを返すことがあります。
	CreateUser(args CreateUserArgs) (*model.User, error)
	// GetUser 指定したIDのユーザーを取得します
	//
	// 成功した場合、ユーザーとnilを返します。
	// 存在しなかった場合、ErrNotFoundを返します。
	// DBによるエラーを返すことがあります。
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetUserByUsername 指定したUsernameのユーザーを取得します
	//
	// 成功した場合、ユーザーとnilを返します。
	// 存在しなかった場合、ErrNotFoundを返します。
	// DBによるエラーを返すことがあります。
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}
