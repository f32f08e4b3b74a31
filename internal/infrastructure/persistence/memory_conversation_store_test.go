package persistence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
)

func msg(id, text string) entity.Message {
	return entity.Message{ID: id, Role: entity.RoleUser, Text: text}
}

// === Append / Messages ===

func TestStore_AppendPreservesOrder(t *testing.T) {
	store := NewMemoryConversationStore()

	store.Append(msg("a", "one"))
	store.Append(msg("b", "two"))
	store.Append(msg("c", "three"))

	got := store.Messages()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestStore_SeedMessagesComeFirst(t *testing.T) {
	seed := entity.Message{ID: "init-1", Role: entity.RoleModel, Text: "hello", ShowTranslation: true}
	store := NewMemoryConversationStore(seed)

	store.Append(msg("u1", "hi"))

	got := store.Messages()
	if len(got) != 2 || got[0].ID != "init-1" {
		t.Fatalf("seed should stay at the head: %+v", got)
	}
}

func TestStore_MessagesReturnsSnapshot(t *testing.T) {
	store := NewMemoryConversationStore()
	store.Append(msg("a", "one"))

	snap := store.Messages()
	snap[0].Text = "mutated"

	if store.Messages()[0].Text != "one" {
		t.Error("mutating the snapshot must not affect the store")
	}
}

// === UpdateByID ===

func TestStore_UpdateByID(t *testing.T) {
	store := NewMemoryConversationStore()
	store.Append(entity.Message{ID: "m1", Role: entity.RoleModel, ShowTranslation: true})

	ok := store.UpdateByID("m1", func(m *entity.Message) {
		m.ShowTranslation = false
	})
	if !ok {
		t.Fatal("update on existing id should report true")
	}
	if store.Messages()[0].ShowTranslation {
		t.Error("mutation did not land")
	}
}

func TestStore_UpdateByID_MissingIsSilentNoOp(t *testing.T) {
	store := NewMemoryConversationStore()
	store.Append(msg("a", "one"))

	called := false
	ok := store.UpdateByID("ghost", func(m *entity.Message) {
		called = true
	})
	if ok {
		t.Error("missing id should report false")
	}
	if called {
		t.Error("mutator must not run for a missing id")
	}
	if store.Len() != 1 || store.Messages()[0].Text != "one" {
		t.Error("store changed by a stale update")
	}
}

// === Concurrency ===

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryConversationStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Append(msg(fmt.Sprintf("id-%d", i), "x"))
		}(i)
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("expected 50 messages, got %d", store.Len())
	}

	// Every id must still resolve through the index.
	for i := 0; i < 50; i++ {
		if !store.UpdateByID(fmt.Sprintf("id-%d", i), func(m *entity.Message) {}) {
			t.Errorf("id-%d not found after concurrent append", i)
		}
	}
}
