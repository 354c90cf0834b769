package utils

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestBufferRoundTrip(t *testing.T) {
	buf := GetBuffer()
	if buf == nil {
		t.Fatal("GetBuffer returned nil")
	}
	buf.WriteString("stale content")
	PutBuffer(buf)

	again := GetBuffer()
	if again.Len() != 0 {
		t.Errorf("recycled buffer not reset: %q", again.String())
	}
	PutBuffer(again)
}

func TestPutBufferDropsOversized(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBuf*2))
	big.WriteString("x")
	// Must not panic, and must not poison the pool with a huge buffer.
	PutBuffer(big)

	got := GetBuffer()
	if got.Cap() > maxPooledBuf {
		t.Errorf("pool returned oversized buffer, cap=%d", got.Cap())
	}
	PutBuffer(got)
}

func TestPutBufferNil(t *testing.T) {
	PutBuffer(nil) // no-op, must not panic
}

func TestBufferConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b := GetBuffer()
				b.WriteString("payload")
				if b.String() != "payload" {
					t.Error("buffer shared between goroutines")
				}
				PutBuffer(b)
			}
		}()
	}
	wg.Wait()
}

func TestWriterTargetsDestination(t *testing.T) {
	var first, second strings.Builder

	bw := GetWriter(&first)
	bw.WriteString("one")
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	PutWriter(bw)

	bw = GetWriter(&second)
	bw.WriteString("two")
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	PutWriter(bw)

	if first.String() != "one" {
		t.Errorf("first writer got %q", first.String())
	}
	if second.String() != "two" {
		t.Errorf("recycled writer wrote %q, old destination leaked?", second.String())
	}
}

func TestPutWriterDetaches(t *testing.T) {
	var sink strings.Builder
	bw := GetWriter(&sink)
	bw.WriteString("kept")
	_ = bw.Flush()
	PutWriter(bw)

	// Anything buffered after Put must not land in sink.
	bw.WriteString("leaked")
	_ = bw.Flush()
	if sink.String() != "kept" {
		t.Errorf("write after PutWriter reached old destination: %q", sink.String())
	}
}

func BenchmarkBufferPool(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := GetBuffer()
		buf.WriteString("benchmark body text")
		PutBuffer(buf)
	}
}

func BenchmarkBufferPoolParallel(b *testing.B) {
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := GetBuffer()
			buf.WriteString("benchmark body text")
			PutBuffer(buf)
		}
	})
}
