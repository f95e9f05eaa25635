package session

import (
	"sync"
	"testing"
)

func TestAdvanceTurnsSeen_Monotonic(t *testing.T) {
	s := New("g1", "c1")

	if s.TurnsSeen() != 0 {
		t.Fatalf("Fresh session should have seen 0 turns, got %d", s.TurnsSeen())
	}

	s.AdvanceTurnsSeen(5)
	if s.TurnsSeen() != 5 {
		t.Errorf("Expected 5, got %d", s.TurnsSeen())
	}

	// Назад счетчик не ходит: повторная доставка старых ходов
	// не должна перематывать сессию
	s.AdvanceTurnsSeen(3)
	if s.TurnsSeen() != 5 {
		t.Errorf("Counter moved backwards: %d", s.TurnsSeen())
	}

	s.AdvanceTurnsSeen(5)
	if s.TurnsSeen() != 5 {
		t.Errorf("Equal advance should be a no-op, got %d", s.TurnsSeen())
	}
}

func TestAdvanceTurnsSeen_Concurrent(t *testing.T) {
	s := New("g1", "c1")

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(n uint64) {
			defer wg.Done()
			s.AdvanceTurnsSeen(n)
		}(uint64(i))
	}
	wg.Wait()

	if s.TurnsSeen() != 100 {
		t.Errorf("Expected max advance to win, got %d", s.TurnsSeen())
	}
}
