package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomValidators(t *testing.T) {
	a := assert.New(t)
	v := WithCustomValidators()

	type form struct {
		Target  string `validate:"ss58_address"`
		Account string `validate:"account_id"`
	}

	a.NoError(v.Struct(form{
		Target:  "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		Account: "alice.testnet",
	}))

	a.Error(v.Struct(form{
		Target:  "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		Account: "alice.testnet",
	}), "hex where SS58 is expected must be rejected")

	a.Error(v.Struct(form{
		Target:  "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		Account: "Not An Account",
	}))
}
