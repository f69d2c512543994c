package rag

import (
	"testing"
)

func TestChunkMetadataMap(t *testing.T) {
	t.Parallel()

	m := ChunkMetadata{
		Source:      "advisory.pdf",
		ChunkID:     2,
		FileSize:    4096,
		ChunkSize:   800,
		Namespace:   "farmer-42",
		TotalChunks: 5,
	}

	got := m.Map()
	if got["source"] != "advisory.pdf" || got["chunk_id"] != 2 || got["total_chunks"] != 5 {
		t.Errorf("unexpected map: %v", got)
	}
	if got["namespace"] != "farmer-42" {
		t.Errorf("namespace = %v, want farmer-42", got["namespace"])
	}
}

func TestChunkMetadataMapOmitsEmptyNamespace(t *testing.T) {
	t.Parallel()

	m := ChunkMetadata{Source: "advisory.pdf", TotalChunks: 1}
	got := m.Map()
	if _, present := got["namespace"]; present {
		t.Error("empty namespace must be omitted, not stored as \"\"")
	}
}

func TestRecordIDDeterministic(t *testing.T) {
	t.Parallel()

	a := Record{Text: "first pass", Meta: ChunkMetadata{Source: "soil.pdf", ChunkID: 0, Namespace: "ns"}}
	b := Record{Text: "second pass, same position", Meta: ChunkMetadata{Source: "soil.pdf", ChunkID: 0, Namespace: "ns"}}

	// Same source, chunk position and namespace means re-ingestion upserts.
	if a.ID() != b.ID() {
		t.Errorf("IDs differ for same position: %s vs %s", a.ID(), b.ID())
	}

	c := Record{Meta: ChunkMetadata{Source: "soil.pdf", ChunkID: 1, Namespace: "ns"}}
	if a.ID() == c.ID() {
		t.Error("different chunk positions must produce different IDs")
	}

	d := Record{Meta: ChunkMetadata{Source: "soil.pdf", ChunkID: 0, Namespace: "other"}}
	if a.ID() == d.ID() {
		t.Error("different namespaces must produce different IDs")
	}
}
