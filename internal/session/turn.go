package session

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DeliveryState — состояние доставки пользовательской реплики.
// Имеет смысл только для role=user; у реплик ассистента пустое.
type DeliveryState string

const (
	DeliveryNone      DeliveryState = ""
	DeliverySending   DeliveryState = "sending"
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

var deliveryRank = map[DeliveryState]int{
	DeliveryNone:      0,
	DeliverySending:   1,
	DeliverySent:      2,
	DeliveryDelivered: 3,
	DeliveryRead:      4,
}

// WelcomeTurnID — фиксированный идентификатор синтетического приветствия.
// Такая реплика не попадает ни в историю для модели, ни в хранилище.
const WelcomeTurnID = "welcome"

type Attachment struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	VoiceURL string `json:"voice_url,omitempty"`
}

type Turn struct {
	ID         string        `json:"id"`
	Role       Role          `json:"role"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
	Delivery   DeliveryState `json:"status,omitempty"`
	Attachment *Attachment   `json:"attachment,omitempty"`
}

// HistoryItem — пара роль/текст в формате, который уходит модели.
type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (t Turn) IsWelcome() bool {
	return t.ID == WelcomeTurnID
}

func NewUserTurn(content string, attachment *Attachment) Turn {
	return Turn{
		ID:         uuid.NewString(),
		Role:       RoleUser,
		Content:    content,
		CreatedAt:  time.Now(),
		Delivery:   DeliverySending,
		Attachment: attachment,
	}
}

func NewAssistantTurn(content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func NewWelcomeTurn(text string) Turn {
	return Turn{
		ID:        WelcomeTurnID,
		Role:      RoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
}
