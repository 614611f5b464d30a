// Package main provides a one-shot utility for grant key generation.
//
// It emits the Ed25519 keypair used to sign and verify facilitator grants.
package main

import (
	"os"

	"github.com/louisbranch/cadence.team/internal/platform/config"
	"github.com/louisbranch/cadence.team/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate grant key: %v", err)
	}
}
