package teams

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed names.yaml
var defaultNames []byte

// Team associa um nome canônico curto às suas variações conhecidas.
type Team struct {
	Name     string   `yaml:"name"`
	Variants []string `yaml:"variants"`
}

// Section agrupa os times de um esporte na tabela.
type Section struct {
	Sport string `yaml:"sport"`
	Teams []Team `yaml:"teams"`
}

type table struct {
	Sections []Section `yaml:"sections"`
}

// Matcher decide se o nome escolhido na aposta corresponde ao nome reportado no feed.
// É imutável após a construção e seguro para uso concorrente.
type Matcher struct {
	entries []Team
}

var (
	defaultOnce    sync.Once
	defaultMatcher *Matcher
)

// Default retorna o matcher com a tabela embutida no binário.
func Default() *Matcher {
	defaultOnce.Do(func() {
		m, err := parse(defaultNames)
		if err != nil {
			panic(fmt.Sprintf("teams: embedded names.yaml: %v", err))
		}
		defaultMatcher = m
	})
	return defaultMatcher
}

// Load lê uma tabela de variações em YAML.
func Load(r io.Reader) (*Matcher, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read team names: %w", err)
	}
	return parse(b)
}

// LoadFile carrega a tabela de um arquivo; caminho vazio usa a tabela embutida.
func LoadFile(path string) (*Matcher, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open team names: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// New monta um matcher a partir de seções já carregadas.
func New(sections ...Section) *Matcher {
	m := &Matcher{}
	for _, s := range sections {
		m.entries = append(m.entries, s.Teams...)
	}
	return m
}

func parse(b []byte) (*Matcher, error) {
	var t table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse team names: %w", err)
	}
	return New(t.Sections...), nil
}

// Size é o número de entradas da tabela (incluindo repetidas).
func (m *Matcher) Size() int { return len(m.entries) }

// Matches aplica, em ordem: igualdade exata, contenção em qualquer direção e
// consulta à tabela de variações. Entradas vazias nunca casam.
func (m *Matcher) Matches(betSelection, liveTeamName string) bool {
	if betSelection == "" || liveTeamName == "" {
		return false
	}
	if betSelection == liveTeamName {
		return true
	}
	if strings.Contains(betSelection, liveTeamName) || strings.Contains(liveTeamName, betSelection) {
		return true
	}
	if m == nil {
		return false
	}
	for _, e := range m.entries {
		if betSelection == e.Name && contains(e.Variants, liveTeamName) {
			return true
		}
		if liveTeamName == e.Name && contains(e.Variants, betSelection) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
