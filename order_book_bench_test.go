package serum

import (
	"math/rand"
	"testing"

	"github.com/0x5487/serum-book/structure"
)

func benchmarkBook(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	leaves := make([]structure.LeafNode, 0, n)
	for i := 0; i < n; i++ {
		leaves = append(leaves, leaf(Buy, uint64(9000+rng.Intn(2000)), uint64(i), uint64(1+rng.Intn(100))))
	}
	return EncodeOrderBook(Buy, structure.BuildSlab(leaves, n*2))
}

func BenchmarkDecodeOrderBook(b *testing.B) {
	data := benchmarkBook(1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeOrderBook(tenthMarket, data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOrderBookLevels(b *testing.B) {
	book, err := DecodeOrderBook(tenthMarket, benchmarkBook(1000))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := book.Levels(20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEventsSince(b *testing.B) {
	slots := make([]Event, 1024)
	for i := range slots {
		slots[i] = takerBidFill(1_000_000, 1_500_000, uint64(i))
	}
	data := EncodeEventQueue(queueHeader(eventQueueFlags, 100, 1024, 5000), slots)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeEventsSince(data, 4900); err != nil {
			b.Fatal(err)
		}
	}
}
