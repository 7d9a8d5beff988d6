package xentity

import "testing"

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ph   Placeholder
		want string
	}{
		{"question untouched", "a = ? AND b = ?", PlaceholderQuestion, "a = ? AND b = ?"},
		{"dollar", "a = ? AND b = ?", PlaceholderDollar, "a = $1 AND b = $2"},
		{"atp", "a = ? AND b = ?", PlaceholderAtP, "a = @p1 AND b = @p2"},
		{"colon", "a = ? AND b = ?", PlaceholderColonNum, "a = :1 AND b = :2"},
		{"single quoted", "a = '?' AND b = ?", PlaceholderDollar, "a = '?' AND b = $1"},
		{"escaped quote", "a = 'it''s ?' AND b = ?", PlaceholderDollar, "a = 'it''s ?' AND b = $1"},
		{"quoted ident", `"we?rd" = ? AND ` + "`x?` = ?", PlaceholderDollar, `"we?rd" = $1 AND ` + "`x?` = $2"},
		{"line comment", "a = ? -- why?\nAND b = ?", PlaceholderDollar, "a = $1 -- why?\nAND b = $2"},
		{"block comment", "a = ? /* ? */ AND b = ?", PlaceholderAtP, "a = @p1 /* ? */ AND b = @p2"},
		{"dollar quoted", "SELECT $$?$$, ?", PlaceholderDollar, "SELECT $$?$$, $1"},
		{"tagged dollar quoted", "SELECT $fn$ ? $fn$, ?", PlaceholderDollar, "SELECT $fn$ ? $fn$, $1"},
		{"existing marker", "a = $1 AND b = ?", PlaceholderDollar, "a = $1 AND b = $1"},
		{"unicode", "ñame = ?", PlaceholderDollar, "ñame = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholders(tt.in, tt.ph); got != tt.want {
				t.Fatalf("rewrite %q got %q want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaceholderFor(t *testing.T) {
	cases := map[string]Placeholder{
		"pgx":       PlaceholderDollar,
		"postgres":  PlaceholderDollar,
		"sqlserver": PlaceholderAtP,
		"MSSQL":     PlaceholderAtP,
		"godror":    PlaceholderColonNum,
		"mysql":     PlaceholderQuestion,
		"sqlite":    PlaceholderQuestion,
		"":          PlaceholderQuestion,
	}
	for in, want := range cases {
		if got := PlaceholderFor(in); got != want {
			t.Fatalf("PlaceholderFor(%q)=%v want %v", in, got, want)
		}
	}
}

func TestParsePlaceholder(t *testing.T) {
	for _, p := range []Placeholder{PlaceholderQuestion, PlaceholderDollar, PlaceholderAtP, PlaceholderColonNum} {
		got, err := ParsePlaceholder(p.String())
		if err != nil || got != p {
			t.Fatalf("ParsePlaceholder(%q)=%v,%v", p.String(), got, err)
		}
	}
	if _, err := ParsePlaceholder("brace"); err == nil {
		t.Fatal("expected error for unknown style")
	}
}
