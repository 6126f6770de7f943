package tableplace

import (
	"testing"

	"github.com/hyperifyio/transcriptfix/internal/docmodel"
	"github.com/hyperifyio/transcriptfix/internal/profile"
)

const introSample = `## 1. Tema Central

Intro.

#### 📋 Quadro-síntese — Tema Central
| Item | Regra |
| --- | --- |
| A | B |

### 1.1. Primeiro Subtópico

Texto.
`

func TestFindBlocks_DetectsHeadingPlusTable(t *testing.T) {
	doc := docmodel.Parse(introSample)
	blocks := FindBlocks(doc)
	if len(blocks) != 1 {
		t.Fatalf("expected one table block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.HeadingLevel != 4 || b.RowCount != 1 {
		t.Fatalf("unexpected block: %+v", b)
	}
	if b.Start != 4 || b.End != 8 {
		t.Fatalf("unexpected span %d..%d", b.Start, b.End)
	}
}

func TestFindBlocks_RejectsHeadingWithoutTable(t *testing.T) {
	md := "## 1. Tema\n\n#### Quadro-síntese\n\nSó texto, sem tabela nenhuma aqui.\n"
	doc := docmodel.Parse(md)
	if blocks := FindBlocks(doc); len(blocks) != 0 {
		t.Fatalf("heading without a valid table must not form a block: %+v", blocks)
	}
}

func TestFindBlocks_RejectsMissingSeparator(t *testing.T) {
	md := "## 1. Tema\n\n#### Quadro-síntese\n| a | b |\n| c | d |\n"
	doc := docmodel.Parse(md)
	if blocks := FindBlocks(doc); len(blocks) != 0 {
		t.Fatalf("table without separator row must be rejected: %+v", blocks)
	}
}

func TestFindMisplacements_IntroToSectionEnd(t *testing.T) {
	doc := docmodel.Parse(introSample)
	out := FindMisplacements(doc, profile.ForMode("APOSTILA"))
	if len(out) != 1 {
		t.Fatalf("expected one misplacement, got %+v", out)
	}
	m := out[0]
	if m.Strategy != StrategyIntroToSectionEnd {
		t.Fatalf("unexpected strategy %q", m.Strategy)
	}
	if m.Confidence != 0.92 {
		t.Fatalf("intro strategy carries fixed confidence 0.92, got %f", m.Confidence)
	}
	if m.InsertLine != len(doc.Lines) {
		t.Fatalf("table should target the end of the H2 span, got line %d", m.InsertLine)
	}
}

func TestFindMisplacements_TableAtSectionEndStays(t *testing.T) {
	md := `## 1. Tema Central

Intro.

### 1.1. Primeiro Subtópico

Texto.

#### 📋 Quadro-síntese — Tema Central
| Item | Regra |
| --- | --- |
| A | B |
`
	doc := docmodel.Parse(md)
	if out := FindMisplacements(doc, profile.ForMode("APOSTILA")); len(out) != 0 {
		t.Fatalf("a table already at the section end must not be flagged: %+v", out)
	}
}

func TestFindMisplacements_SubtopicToParent(t *testing.T) {
	md := `## 1. Licitações

A licitação pública segue as modalidades de concorrência, pregão e leilão. O pregão eletrônico aplica-se a bens e serviços comuns da administração.

### 1.1. Sanções Administrativas

As sanções administrativas incluem advertência, multa e declaração de inidoneidade do contratado.

#### Quadro-síntese de modalidades
| Modalidade | Uso |
| --- | --- |
| Pregão | bens e serviços comuns da administração |
| Concorrência | obras de maior vulto da licitação |
`
	doc := docmodel.Parse(md)
	out := FindMisplacements(doc, profile.ForMode("APOSTILA"))
	if len(out) != 1 {
		t.Fatalf("expected one misplacement, got %+v", out)
	}
	m := out[0]
	if m.Strategy != StrategySubtopicToParent {
		t.Fatalf("unexpected strategy %q", m.Strategy)
	}
	if m.InsertLine != doc.Sections[1].HeadingLine {
		t.Fatalf("table should move to just before the subsection heading, got %d", m.InsertLine)
	}
	if m.Confidence <= 0 || m.Confidence > 0.90 {
		t.Fatalf("confidence out of range: %f", m.Confidence)
	}
}

func TestFindLevelIssues_DemotesShallowTableHeading(t *testing.T) {
	md := "## 1. Tema\n\n### 1.1. Quadro-síntese do tema\n| a | b |\n| --- | --- |\n| x | y |\n"
	doc := docmodel.Parse(md)
	out := FindLevelIssues(doc)
	if len(out) != 1 {
		t.Fatalf("expected one level issue, got %+v", out)
	}
	if out[0].New != "#### Quadro-síntese do tema" {
		t.Fatalf("demotion should target level 4 and strip numbering, got %q", out[0].New)
	}
}

func TestFindArtifacts_StrayHashAndDoublePrefix(t *testing.T) {
	md := "## 1. ## Título com lixo\n\ntexto\n\n### 2.1. 2.1. Prefixo duplicado\n\ntexto\n"
	doc := docmodel.Parse(md)
	out := FindArtifacts(doc)
	if len(out) != 2 {
		t.Fatalf("expected two artifacts, got %+v", out)
	}
	if out[0].New != "## 1. Título com lixo" {
		t.Fatalf("stray hash not cleaned: %q", out[0].New)
	}
	if out[1].New != "### 2.1. Prefixo duplicado" {
		t.Fatalf("double prefix not collapsed: %q", out[1].New)
	}
}

func TestIsTableHeading(t *testing.T) {
	for _, title := range []string{"📋 Quadro-síntese — Tema", "Tabela comparativa", "Pegadinhas de banca"} {
		if !IsTableHeading(title) {
			t.Fatalf("expected table heading: %q", title)
		}
	}
	if IsTableHeading("Conceitos Gerais") {
		t.Fatalf("ordinary heading must not match")
	}
}
