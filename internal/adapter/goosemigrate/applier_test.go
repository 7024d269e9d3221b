package goosemigrate

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
)

func TestApplyRejectsUnknownSet(t *testing.T) {
	a := New(time.Second)
	err := a.Apply(context.Background(), schema.ConnInfo{}, "master")
	if err == nil {
		t.Fatal("expected error for unknown set")
	}
	if !strings.Contains(err.Error(), "master") {
		t.Errorf("error %q does not name the bad set", err)
	}
}

func TestProviderIsPerRun(t *testing.T) {
	// sql.Open performs no I/O, so providers can be built without a server.
	db, err := sql.Open("pgx", "postgres://u:p@localhost:1/none")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	// Each run builds its own provider over the embedded set; concurrent
	// builds must not disturb each other through shared package state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prov, err := newProvider(db)
			if err != nil {
				t.Errorf("newProvider: %v", err)
				return
			}
			if n := len(prov.ListSources()); n != 2 {
				t.Errorf("sources = %d, want 2", n)
			}
		}()
	}
	wg.Wait()
}
