package consts

const (
	HeaderVersion = "X-TASKFLOW-VERSION"
)
