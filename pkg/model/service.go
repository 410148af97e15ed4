package model

type Service struct {
	ID              string   `json:"id" bson:"_id" validate:"required"`
	TenantID        string   `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Name            string   `json:"name" bson:"name" validate:"required,min=2,max=100"`
	DurationMinutes int      `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=5,max=480"`
	Price           *float64 `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,min=0"`
}
