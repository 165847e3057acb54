package fixmap

import (
	"testing"
)

func TestBitLockBasicReadWrite(t *testing.T) {
	var l BitLock

	tok := l.ReadLock()
	l.ReadUnlock(tok)

	l.WriteLock()
	l.WriteUnlock()
}

func TestBitLockMultipleReaders(t *testing.T) {
	var l BitLock

	tok1 := l.ReadLock()
	tok2 := l.ReadLock()
	tok3 := l.ReadLock()

	if tok1 == tok2 || tok2 == tok3 || tok1 == tok3 {
		t.Fatalf("expected distinct reader tokens, got %d %d %d", tok1, tok2, tok3)
	}

	l.ReadUnlock(tok1)
	l.ReadUnlock(tok2)
	l.ReadUnlock(tok3)

	if l.state.Load() != 0 {
		t.Fatalf("expected drained state, got %x", l.state.Load())
	}
}

func TestBitLockWriterExcludesReadersAfterRelease(t *testing.T) {
	var l BitLock

	l.WriteLock()
	l.WriteUnlock()

	tok := l.ReadLock()
	l.ReadUnlock(tok)
}
