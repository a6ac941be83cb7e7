package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huapala/mele-archive/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedCanonicalMele inserts a canonical song row with a unique canonical ID
// and returns the ID.
func SeedCanonicalMele(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	canonicalID := "test_mele_" + suffix + "_canonical"

	_, err := pool.Exec(ctx,
		`INSERT INTO canonical_mele (canonical_id, primary_title) VALUES ($1, $2)`,
		canonicalID, "Test Mele "+suffix,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCanonicalMele insert: %v", err)
	}

	return canonicalID
}

// SeedMeleSource inserts a canonical song plus one processed source row with
// a small bilingual two-verse document. Returns the source row ID and the
// canonical ID.
func SeedMeleSource(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, string) {
	t.Helper()
	ctx := context.Background()

	canonicalID := SeedCanonicalMele(t, pool)
	suffix := uniqueSuffix()

	order1, order2 := 1, 2
	doc := domain.SongDocument{
		SongType: domain.SongTypeBilingual,
		Sections: []domain.DocumentSection{
			{
				Type:  domain.SectionVerse,
				Order: &order1,
				Lines: []domain.DocumentLine{
					{HawaiianText: "He aloha nui", EnglishText: "Great is the love", IsBilingual: true},
					{HawaiianText: "No ka ʻāina", EnglishText: "For the land", IsBilingual: true},
				},
			},
			{
				Type:  domain.SectionVerse,
				Order: &order2,
				Lines: []domain.DocumentLine{
					{HawaiianText: "E ō mai", EnglishText: "Answer the call", IsBilingual: true},
					{HawaiianText: "E nā hoa", EnglishText: "O companions", IsBilingual: true},
				},
			},
		},
	}

	versesJSON, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("testhelper: SeedMeleSource marshal document: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO mele_sources (
		    canonical_mele_id, source_file, title, song_type, structure_type,
		    verse_pattern, verses_json, processing_status, quality_score,
		    manual_review_required, stray_text, processed_at
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		canonicalID, "seed-"+suffix+".html", "Test Mele "+suffix,
		string(domain.SongTypeBilingual), string(domain.StructureTwoLineStrophic),
		[]byte(`[2,2]`), versesJSON, string(domain.StatusImported),
		100.0, false, []byte(`[]`), time.Now().UTC().Truncate(time.Microsecond),
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedMeleSource insert source: %v", err)
	}

	return id, canonicalID
}
