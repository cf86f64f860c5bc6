package identity

import "testing"

func TestArticleURNUsesIdWhenPresent(t *testing.T) {
	if got := ArticleURN(" 1234 ", "ignored", "ignored"); got != "urn:article:1234" {
		t.Fatalf("unexpected urn %s", got)
	}
}

func TestArticleURNFallbackIsDeterministic(t *testing.T) {
	first := ArticleURN("", "Maintenance", "2024-01-01 00:00:00")
	second := ArticleURN("", "Maintenance", "2024-01-01 00:00:00")
	if first != second {
		t.Fatalf("expected identical fallback ids, got %s and %s", first, second)
	}
	if !IsFallbackURN(first) {
		t.Fatalf("expected fallback prefix, got %s", first)
	}

	other := ArticleURN("", "Maintenance", "2024-01-02 00:00:00")
	if other == first {
		t.Fatal("expected different createTime to produce a different id")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if UUID("   ").String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected nil uuid for blank key")
	}
}
