// Package main provides a one-shot utility for admin-grant key generation.
//
// It emits the asymmetric keypair used to sign and verify admin grants.
package main

import (
	"os"

	"github.com/manhuntgame/manhunt/internal/platform/config"
	"github.com/manhuntgame/manhunt/internal/tools/admingrantkey"
)

func main() {
	if err := admingrantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate admin grant key: %v", err)
	}
}
