package valkeystore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/sentimap/pkg/sentimap/store/storetest"
)

func TestStoreContract(t *testing.T) {
	addr := os.Getenv("VALKEY_INIT_ADDRESS")
	if addr == "" {
		t.Skip("VALKEY_INIT_ADDRESS not set")
	}

	st, err := Open(context.Background(), Options{
		Address:   addr,
		Password:  os.Getenv("VALKEY_PASSWORD"),
		TLS:       os.Getenv("VALKEY_TLS") == "true",
		KeyPrefix: "sentimap-test:" + ulid.Make().String() + ":",
		TTL:       time.Minute,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	storetest.Run(t, st, func() string { return ulid.Make().String() })
}

func TestOpenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := Open(ctx, Options{Address: "127.0.0.1:1"}); err == nil {
		t.Error("Expected error for unreachable server")
	}
}
