package request

type PostAccess struct {
	DatasetId string `json:"datasetId" binding:"required"`

	// Taken from the session when it's enabled, must match it if both are set
	UserAddress string `json:"userAddress"`
}
