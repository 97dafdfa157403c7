package event

const (
	// UserCreated ユーザーが作成された
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		user: *model.User
	UserCreated = "user.created"
	// UserOnline ユーザーがオンラインになった
	// 	Fields:
	// 		user_id: uuid.UUID
	UserOnline = "user.online"
	// UserOffline ユーザーがオフラインになった
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		datetime: time.Time
	UserOffline = "user.offline"
	// UserIdle ユーザーが一定時間無操作でアイドル状態になった
	// 	Fields:
	// 		user_id: uuid.UUID
	UserIdle = "user.idle"
	// UserActivityUpdated ユーザーの操作が記録された
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		project_id: uuid.UUID
	// 		task_id: uuid.NullUUID
	UserActivityUpdated = "user.activity_updated"
	// UserTyping ユーザーがタスクへの入力を開始・継続した
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		project_id: uuid.UUID
	// 		task_id: uuid.UUID
	UserTyping = "user.typing"
	// UserTypingStopped ユーザーのタスクへの入力が止まった
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		project_id: uuid.UUID
	UserTypingStopped = "user.typing_stopped"

	// ProjectUserJoined ユーザーがプロジェクトルームに参加した
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		user_id: uuid.UUID
	ProjectUserJoined = "project.user_joined"
	// ProjectUserLeft ユーザーがプロジェクトルームから退出した
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		user_id: uuid.UUID
	ProjectUserLeft = "project.user_left"
	// ProjectMemberAdded プロジェクトにメンバーが追加された
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		user_id: uuid.UUID
	ProjectMemberAdded = "project.member_added"
	// ProjectMemberRemoved プロジェクトからメンバーが削除された
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		user_id: uuid.UUID
	ProjectMemberRemoved = "project.member_removed"
	// ProjectEventRecorded プロジェクトの変更イベントが履歴に記録された
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		event: events.Event
	ProjectEventRecorded = "project.event_recorded"

	// WSConnected ユーザーがWebSocketストリームへ接続した
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		conn_key: string
	WSConnected = "ws.connected"
	// WSDisconnected ユーザーがWebSocketストリームから切断した
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		conn_key: string
	WSDisconnected = "ws.disconnected"
)
