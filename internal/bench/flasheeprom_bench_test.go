package bench

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/MikhailWahib/flasheeprom"
	"github.com/MikhailWahib/flasheeprom/internal/flash/mockflash"
)

func setupBenchStore(b *testing.B, drv flasheeprom.Driver) *flasheeprom.Store {
	store, err := flasheeprom.Open(drv, nil, nil)
	if err != nil {
		b.Fatalf("Failed to open store: %v", err)
	}
	if err := store.StampVersion(); err != nil {
		b.Fatalf("Failed to stamp version: %v", err)
	}
	return store
}

func generateRecord(size int) []byte {
	value := make([]byte, size)
	for i := range value {
		value[i] = byte(rand.Intn(256))
	}
	return value
}

func newMockStore(b *testing.B) *flasheeprom.Store {
	cfg := flasheeprom.DefaultConfig()
	return setupBenchStore(b, mockflash.NewDriver(cfg.StartAddress, cfg.PageSize))
}

func BenchmarkWriteWithChecksum(b *testing.B) {
	store := newMockStore(b)
	record := generateRecord(64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.WriteWithChecksum(1+(i%8)*65, record); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

func BenchmarkReadWithChecksum(b *testing.B) {
	store := newMockStore(b)
	record := generateRecord(64)
	if err := store.WriteWithChecksum(1, record); err != nil {
		b.Fatalf("Write failed: %v", err)
	}
	buf := make([]byte, len(record))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := store.ReadWithChecksum(buf, 1)
		if err != nil || !ok {
			b.Fatalf("Read failed: ok=%v err=%v", ok, err)
		}
	}
}

func BenchmarkFlushSparsePage(b *testing.B) {
	store := newMockStore(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Flush(); err != nil {
			b.Fatalf("Flush failed: %v", err)
		}
	}
}

func BenchmarkFlushDenseImage(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.bin")
	img, err := flasheeprom.CreateImage(path, nil)
	if err != nil {
		b.Fatalf("Failed to create image: %v", err)
	}
	defer func() { _ = img.Close() }()

	store := setupBenchStore(b, img)
	if err := store.WriteWithChecksum(1, generateRecord(store.PageSize()-2)); err != nil {
		b.Fatalf("Write failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Flush(); err != nil {
			b.Fatalf("Flush failed: %v", err)
		}
	}
}
