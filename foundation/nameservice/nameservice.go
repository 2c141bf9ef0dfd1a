// Package nameservice reads a folder of wallet key files and creates a name
// service lookup for the accounts they hold.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

const keyExtension = ".ecdsa"

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	mu       sync.RWMutex
	accounts map[database.AccountID]string
}

// New constructs a name service with the accounts found in the root folder.
// The file name without its extension is the name of the account. A root
// folder that doesn't exist produces an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.AccountID]string),
	}

	if root == "" {
		return &ns, nil
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && fileName == root {
				return filepath.SkipDir
			}
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExtension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("load %s: %w", fileName, err)
		}

		account := database.PublicKeyToAccountID(privateKey.PublicKey)
		ns.accounts[account] = strings.TrimSuffix(filepath.Base(fileName), keyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account. An unknown account
// is its own name.
func (ns *NameService) Lookup(account database.AccountID) string {
	if ns == nil {
		return string(account)
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.accounts[account]
	if !exists {
		return string(account)
	}
	return name
}

// Register names an account, replacing any previous name.
func (ns *NameService) Register(account database.AccountID, name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.accounts[account] = name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
