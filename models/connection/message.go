package connection

type NoPayload bool

// Message is the envelope for every frame in both directions. The
// code tells the receiver how to interpret the payload.
type Message[T any] struct {
	Code    uint8    `json:"code"`
	Payload T        `json:"payload,omitempty"`
	Error   *RespErr `json:"error,omitempty"`
}

func NewMessage[T any](code uint8) Message[T] {
	return Message[T]{Code: code}
}

func (m *Message[T]) AddPayload(payload T) {
	m.Payload = payload
}

func (m *Message[T]) AddError(code, message string) {
	m.Error = NewRespErr(code, message)
}
