package teams

import (
	"strings"
	"testing"
)

func TestDefaultMatcher(t *testing.T) {
	m := Default()
	tests := []struct {
		bet, live string
		want      bool
	}{
		{"Lakers", "Los Angeles Lakers", true},
		{"Lakers", "Boston Celtics", false},
		{"", "Lakers", false},
		{"Lakers", "", false},
		{"Lakers", "Lakers", true},
		// contenção
		{"Golden State Warriors", "Warriors", true},
		// tabela: canônico -> variação
		{"Cavaliers", "Cavs", true},
		{"Mavericks", "Mavs", true},
		// tabela: variação -> canônico
		{"Cavs", "Cavaliers", true},
		{"UNC", "North Carolina Tar Heels", true},
		{"NC State", "North Carolina State Wolfpack", true},
		{"Blazers", "Trail Blazers", true},
		// entrada duplicada entre seções
		{"Syracuse", "Syracuse Orange", true},
		{"Heat", "Miami Dolphins", false},
		{"Cavs", "Celtics", false},
	}
	for _, tt := range tests {
		if got := m.Matches(tt.bet, tt.live); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.bet, tt.live, got, tt.want)
		}
	}
}

func TestDefaultTableLoaded(t *testing.T) {
	if n := Default().Size(); n < 200 {
		t.Fatalf("embedded table has %d entries, expected the full roster", n)
	}
}

func TestLoadCustomTable(t *testing.T) {
	const doc = `
sections:
  - sport: nba
    teams:
      - name: "Sixers"
        variants: ["Philadelphia 76ers"]
  - sport: nfl
    teams:
      - name: "Sixers"
        variants: ["Philadelphia 76ers"]
`
	m, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("Sixers", "Philadelphia 76ers") {
		t.Error("expected variant match")
	}
	if !m.Matches("Philadelphia 76ers", "Sixers") {
		t.Error("expected reverse variant match")
	}
	if m.Matches("Sixers", "Boston Celtics") {
		t.Error("unexpected match")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(strings.NewReader("sections: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNilMatcherFallsBackToStringRules(t *testing.T) {
	var m *Matcher
	if !m.Matches("Lakers", "Los Angeles Lakers") {
		t.Error("containment should match without a table")
	}
	if m.Matches("Cavs", "Cavaliers") {
		t.Error("table lookup should not run without a table")
	}
}
