package domain

// ChatRequest is the inbound /chat payload.
type ChatRequest struct {
	Message  string `json:"message"`
	TenantID string `json:"tenant_id"`
}

// ChatResponse pairs the model reply with the tenant it was generated for.
type ChatResponse struct {
	Reply   string  `json:"reply"`
	Company *Tenant `json:"company"`
}
