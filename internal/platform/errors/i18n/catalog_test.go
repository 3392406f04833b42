package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("ko-KR")
	if base == nil || base.Locale() != "ko-KR" {
		t.Fatalf("base catalog = %+v", base)
	}
	for _, locale := range []string{"missing-locale", "", "fr-FR"} {
		if GetCatalog(locale) != base {
			t.Errorf("GetCatalog(%q) did not fall back to ko-KR", locale)
		}
	}
	if GetCatalog("en").Locale() != "en-US" {
		t.Fatal("expected bare en to resolve to en-US")
	}
}

func TestGetCatalogEnglish(t *testing.T) {
	got := GetCatalog("en-US").Format("CATALOG_INTEGRITY", map[string]string{"Code": "1111"})
	if got != "No hexagram is registered for 1111." {
		t.Fatalf("format = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[string]string{
		"code":   "hello {{.Name}}",
		"broken": "{{ if .Name }}",
	})
	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if got := cat.Format("code", nil); got != "hello " {
		t.Fatalf("format = %q, want missing metadata rendered empty", got)
	}
	if got := cat.Format("code", map[string]string{"Name": "미나"}); got != "hello 미나" {
		t.Fatalf("format = %q", got)
	}
	if got := cat.Format("broken", map[string]string{"Name": "X"}); got != "{{ if .Name }}" {
		t.Fatalf("format = %q, want raw template on parse error", got)
	}
}
