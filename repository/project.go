package repository

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/taskflow-dev/taskflow/model"
)

// ProjectRepository プロジェクトリポジトリ
type ProjectRepository interface {
	// GetProject 指定したIDのプロジェクトを取得します
	//
	// 成功した場合、プロジェクトとnilを返します。
	// 存在しなかった場合、ErrNotFoundを返します。
	// DBによるエラーを返すことがあります。
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// AddProjectMember 指定したプロジェクトにメンバーを追加します
	//
	// 既にメンバーである場合は何もしません。
	// DBによるエラーを返すことがあります。
	AddProjectMember(projectID, userID uuid.UUID, role string) error
	// RemoveProjectMember 指定したプロジェクトからメンバーを削除します
	//
	// メンバーでない場合は何もしません。
	// DBによるエラーを返すことがあります。
	RemoveProjectMember(projectID, userID uuid.UUID) error
	// IsProjectMember 指定したユーザーがプロジェクトのメンバーかどうかを返します
	//
	// DBによるエラーを返すことがあります。
	IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	// GetProjectMemberIDs 指定したプロジェクトの全メンバーのユーザーIDを取得します
	//
	// DBによるエラーを返すことがあります。
	GetProjectMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
}
