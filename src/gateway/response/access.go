package response

import (
	"github.com/sonar-protocol/kiosk-syncer/src/kiosk"
)

type PostAccess struct {
	DownloadUrl  string `json:"download_url"`
	SealPolicyId string `json:"seal_policy_id"`
}

func AccessGrantToResponse(grant *kiosk.AccessGrant) *PostAccess {
	return &PostAccess{
		DownloadUrl:  grant.DownloadUrl,
		SealPolicyId: grant.SealPolicyId,
	}
}
