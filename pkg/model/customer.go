package model

import "time"

type Customer struct {
	TenantID           string    `json:"tenant_id" bson:"tenant_id"`
	ChannelID          string    `json:"channel_id" bson:"channel_id"`
	Name               string    `json:"name" bson:"name"`
	HumanSupportActive bool      `json:"human_support_active" bson:"human_support_active"`
	LastInteraction    time.Time `json:"last_interaction" bson:"last_interaction"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}
