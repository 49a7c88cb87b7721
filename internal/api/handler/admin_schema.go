package handler

import "github.com/semanticpilot/backend/internal/core/domain"

// defaultCreditGrant is applied when an add-credits request omits the amount.
const defaultCreditGrant = 10

type addCreditsRequest struct {
	Credits int64 `json:"credits"`
}

type usersResponse struct {
	Users []*domain.Profile `json:"users"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type cleanupResponse struct {
	Status         string `json:"status"`
	UsersProcessed int    `json:"users_processed"`
	RecordsDeleted int64  `json:"records_deleted"`
	Message        string `json:"message,omitempty"`
}
