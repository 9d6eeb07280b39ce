package policy

import (
	_ "embed"

	"github.com/nazahex/rigra/internal/schema"
)

//go:embed schemas/policy.schema.json
var policySchema string

func validatePolicy(data []byte) error {
	return schema.ValidateTOML(data, policySchema)
}
