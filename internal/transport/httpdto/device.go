package httpdto

type DeviceResponse struct {
	Fingerprint string `json:"fingerprint"`
	DisplayName string `json:"display_name,omitempty"`
}

type ClaimNameRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}
