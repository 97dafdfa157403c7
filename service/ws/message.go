package ws

import (
	vd "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/uuid"
	jsoniter "github.com/json-iterator/go"
)

type rawMessage struct {
	t    int
	data []byte
}

type message struct {
	Type string      `json:"type"`
	Body interface{} `json:"body"`
}

func makeMessage(t string, b interface{}) (m *message) {
	return &message{
		Type: t,
		Body: b,
	}
}

func (m *message) toJSON() (b []byte) {
	b, _ = json.Marshal(m)
	return
}

// command クライアントからの受信メッセージ
//
// ボディはコマンドの種類が分かるまでデコードを遅延します。
type command struct {
	Type string              `json:"type"`
	Body jsoniter.RawMessage `json:"body"`
}

type joinProjectPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
}

func (p joinProjectPayload) Validate() error {
	return vd.ValidateStruct(&p,
		vd.Field(&p.ProjectID, vd.Required),
	)
}

type leaveProjectPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
}

func (p leaveProjectPayload) Validate() error {
	return vd.ValidateStruct(&p,
		vd.Field(&p.ProjectID, vd.Required),
	)
}

type typingPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
	TaskID    uuid.UUID `json:"taskId"`
}

func (p typingPayload) Validate() error {
	return vd.ValidateStruct(&p,
		vd.Field(&p.ProjectID, vd.Required),
		vd.Field(&p.TaskID, vd.Required),
	)
}

// stoppedTypingPayload projectIdを省略した場合は入力中のプロジェクトが対象になります
type stoppedTypingPayload struct {
	ProjectID uuid.UUID `json:"projectId"`
}
