package headsem

import (
	"strings"
	"testing"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/profile"
)

func TestAnalyze_TitleBodyMismatch(t *testing.T) {
	md := `## 1. Direito Administrativo

Visão geral do capítulo.

### 1.1. Introdução Geral

O prazo de prescrição tributária é de cinco anos contados da constituição definitiva do crédito. A contagem pode ser interrompida pelo despacho que ordena a citação do devedor. Também se interrompe pelo protesto judicial e por qualquer ato que constitua em mora o sujeito passivo.
`
	doc := docmodel.Parse(md)
	issues := Analyze(doc, profile.ForMode("APOSTILA"))
	var hit *Issue
	for i := range issues {
		if issues[i].Kind == KindSemanticMismatch {
			hit = &issues[i]
		}
	}
	if hit == nil {
		t.Fatalf("expected a semantic mismatch, got %+v", issues)
	}
	if hit.OldTitle != "Introdução Geral" {
		t.Fatalf("unexpected target %q", hit.OldTitle)
	}
	if hit.NewTitle == "" || hit.NewTitle == hit.OldTitle {
		t.Fatalf("expected a derived replacement title, got %q", hit.NewTitle)
	}
	if hit.Confidence <= 0 || hit.Confidence >= 0.96 {
		t.Fatalf("confidence must stay below 0.96, got %f", hit.Confidence)
	}
}

func TestAnalyze_ParentChildDrift(t *testing.T) {
	md := `## 2. Responsabilidade Civil

Corpo do pai sobre responsabilidade civil e seus elementos essenciais constitutivos.

### 2.1. Responsabilidade Civil

Aqui o texto trata de prazos processuais e da contagem em dias úteis, sem relação com o título acima.
`
	doc := docmodel.Parse(md)
	issues := Analyze(doc, profile.ForMode("APOSTILA"))
	found := false
	for _, is := range issues {
		if is.Kind == KindParentChildDrift {
			found = true
			if is.OldTitle != "Responsabilidade Civil" {
				t.Fatalf("drift flagged wrong heading: %+v", is)
			}
		}
	}
	if !found {
		t.Fatalf("expected parent/child drift, got %+v", issues)
	}
}

func TestAnalyze_NearDuplicateSiblings(t *testing.T) {
	md := `## 1. Recursos

Panorama breve.

### 1.1. Recursos Especiais

Corpo sobre requisitos de admissibilidade do recurso especial no STJ.

### 1.2. Recursos Especiais

Corpo diferente tratando de embargos de declaração e efeitos modificativos.
`
	doc := docmodel.Parse(md)
	issues := Analyze(doc, profile.ForMode("APOSTILA"))
	var hit *Issue
	for i := range issues {
		if issues[i].Kind == KindNearDuplicate {
			hit = &issues[i]
		}
	}
	if hit == nil {
		t.Fatalf("expected a near-duplicate sibling issue, got %+v", issues)
	}
	if hit.Section != 2 {
		t.Fatalf("the later sibling should carry the suggestion, got section %d", hit.Section)
	}
}

func TestAnalyze_MatchedTitlesStayQuiet(t *testing.T) {
	md := `## 1. Prescrição Tributária

A prescrição tributária extingue o crédito tributário após cinco anos. O prazo de prescrição conta da constituição definitiva. A prescrição pode ser interrompida nas hipóteses legais previstas no código tributário nacional em vigor.
`
	doc := docmodel.Parse(md)
	if issues := Analyze(doc, profile.ForMode("APOSTILA")); len(issues) != 0 {
		t.Fatalf("a well-titled section must produce no issues, got %+v", issues)
	}
}

func TestDeriveTitle_SkipsFencesTablesAndShortLines(t *testing.T) {
	body := []string{
		"```",
		"código dentro do fence que nunca deve aparecer no título derivado",
		"```",
		"| célula | célula |",
		"- item",
		"curto",
		"A desapropriação por utilidade pública exige prévia e justa indenização em dinheiro.",
	}
	got := DeriveTitle(body, "Título Antigo")
	if got == "" || !strings.HasPrefix(got, "A desapropriação") {
		t.Fatalf("unexpected derived title %q", got)
	}
}

func TestDeriveTitle_TruncatesAndRecases(t *testing.T) {
	body := []string{
		"o princípio da legalidade impede que a administração pública atue sem fundamento legal expresso em qualquer de suas esferas de atuação administrativa",
	}
	got := DeriveTitle(body, "TÍTULO EM CAIXA ALTA")
	if got == "" {
		t.Fatalf("expected a derived title")
	}
	if words := strings.Fields(got); len(words) > 12 {
		t.Fatalf("title must be truncated to 12 words, got %d", len(words))
	}
	if got != strings.ToUpper(got) {
		t.Fatalf("all-caps original should produce all-caps suggestion, got %q", got)
	}
}

func TestDeriveTitle_EmptyWhenNothingUsable(t *testing.T) {
	if got := DeriveTitle([]string{"curto", "| a | b |"}, "Qualquer"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
