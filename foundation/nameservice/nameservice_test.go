package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/nameservice"
)

func Test_Lookup(t *testing.T) {
	dir := t.TempDir()

	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}

	if err := crypto.SaveECDSA(filepath.Join(dir, "kennedy.ecdsa"), pk); err != nil {
		t.Fatalf("Should be able to save the private key: %v", err)
	}

	ns, err := nameservice.New(dir)
	if err != nil {
		t.Fatalf("Should be able to load the folder: %v", err)
	}

	account := database.PublicKeyToAccountID(pk.PublicKey)
	if name := ns.Lookup(account); name != "kennedy" {
		t.Fatalf("Should resolve the account name, got %q", name)
	}

	unknown := database.AccountID("0x0000")
	if name := ns.Lookup(unknown); name != string(unknown) {
		t.Fatalf("Should return the account for an unknown account, got %q", name)
	}

	ns.Register(unknown, "node")
	if len(ns.Copy()) != 2 {
		t.Fatalf("Should hold both accounts, got %d", len(ns.Copy()))
	}
}

func Test_MissingFolder(t *testing.T) {
	ns, err := nameservice.New(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Should accept a missing folder: %v", err)
	}

	if len(ns.Copy()) != 0 {
		t.Fatalf("Should start empty.")
	}
}
