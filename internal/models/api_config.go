package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// RateLimitConfig holds token bucket parameters.
type RateLimitConfig struct {
	BucketSize      int `bson:"bucket_size" json:"bucket_size"`
	TokenRefillRate int `bson:"token_refill_rate" json:"token_refill_rate"` // Tokens per second
}

// APIEndpointConfig defines per-endpoint rate limit overrides.
// Stored in the `api_endpoints_config` collection.
type APIEndpointConfig struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Endpoint      string             `bson:"endpoint" json:"endpoint"` // Gin route path, e.g. /api/contact/submit
	RateLimitSoft *RateLimitConfig   `bson:"rate_limit_soft,omitempty" json:"rate_limit_soft,omitempty"`
	RateLimitHard *RateLimitConfig   `bson:"rate_limit_hard,omitempty" json:"rate_limit_hard,omitempty"`
}
