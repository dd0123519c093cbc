package node

import (
	"context"
	"testing"

	"animica.dev/node/crypto"
)

// alwaysValidProvider accepts every signature/proof, isolating
// node-package tests from real cryptographic material they cannot
// generate without invoking a signer.
type alwaysValidProvider struct {
	crypto.Provider
}

func testProvider(t *testing.T) crypto.Provider {
	t.Helper()
	return alwaysValidProvider{Provider: crypto.NewStdProvider(nil, nil)}
}

func (alwaysValidProvider) VerifyPQSig(context.Context, crypto.AlgID, []byte, []byte, []byte) (bool, error) {
	return true, nil
}

func (alwaysValidProvider) VerifyZK(context.Context, string, []byte, []byte) (bool, error) {
	return true, nil
}

func (alwaysValidProvider) VerifyVDF(context.Context, crypto.VDFParams, []byte, []byte, []byte) (bool, error) {
	return true, nil
}
