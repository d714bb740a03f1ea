package dto

type StartConversationRequest struct {
	ConversationID string `json:"conversation_id,omitempty" example:"conv_9d2b"`
	AgentID        string `json:"agent_id" example:"agent_7f3a"`
	UserID         string `json:"user_id" example:"user_11ab"`
	Channel        string `json:"channel" example:"web"`
}

type UpdateConversationRequest struct {
	Status       string `json:"status" example:"completed"`
	Satisfaction *int   `json:"satisfaction,omitempty" example:"4"`
	Sentiment    string `json:"sentiment,omitempty" example:"positive"`
}

type MessageEventRequest struct {
	ConversationID string `json:"conversation_id" example:"conv_9d2b"`
	AgentID        string `json:"agent_id" example:"agent_7f3a"`
	UserID         string `json:"user_id" example:"user_11ab"`
	Channel        string `json:"channel" example:"web"`
	Kind           string `json:"kind" example:"message_out"`
	Intent         string `json:"intent,omitempty" example:"order_status"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty" example:"420"`
}

type ConversationResponse struct {
	ConversationID string `json:"conversation_id" example:"conv_9d2b"`
	Status         string `json:"status" example:"active"`
}

type AcceptedResponse struct {
	Accepted bool `json:"accepted" example:"true"`
}
