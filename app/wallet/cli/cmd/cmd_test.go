package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func Test_Wallet(t *testing.T) {
	dir := t.TempDir()

	addr, err := run(t, "generate", "-p", dir, "-a", "bill")
	if err != nil {
		t.Fatalf("Should be able to generate a key: %v", err)
	}

	if !database.AccountID(addr).IsAccountID() {
		t.Fatalf("Should print a valid account, got %q", addr)
	}

	if _, err := run(t, "generate", "-p", dir, "-a", "bill"); err == nil {
		t.Fatalf("Should not overwrite an existing key.")
	}

	got, err := run(t, "account", "-p", dir, "-a", "bill.ecdsa")
	if err != nil {
		t.Fatalf("Should be able to load the key: %v", err)
	}

	if got != addr {
		t.Fatalf("Should print the same account, got %q, exp %q", got, addr)
	}

	var received database.Tx
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/tx/submit":
			json.NewDecoder(r.Body).Decode(&received)
			if received.Amount == 99 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"transaction already in mempool"}`))
				return
			}
			w.Write([]byte(`{"status":"transaction added to mempool"}`))

		case "/v1/accounts/list/" + addr:
			w.Write([]byte(`{"accounts":[{"account":"` + addr + `","balance":-5}]}`))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	to := "0x02412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf"

	sig, err := run(t, "send", "-p", dir, "-a", "bill", "-u", srv.URL, "--to", to, "--amount", "5")
	if err != nil {
		t.Fatalf("Should be able to send a transaction: %v", err)
	}

	if !received.IsValid() || received.Signature != sig || string(received.Recipient) != to || received.Amount != 5 {
		t.Fatalf("Should send a signed transaction, got %+v", received)
	}

	if _, err := run(t, "send", "-p", dir, "-a", "bill", "-u", srv.URL, "--to", to, "--amount", "99"); err == nil || !strings.Contains(err.Error(), "already in mempool") {
		t.Fatalf("Should report the node's rejection, got %v", err)
	}

	out, err := run(t, "balance", "-p", dir, "-a", "bill", "-u", srv.URL)
	if err != nil {
		t.Fatalf("Should be able to query the balance: %v", err)
	}

	if out != addr+": -5" {
		t.Fatalf("Should print the balance, got %q", out)
	}
}
