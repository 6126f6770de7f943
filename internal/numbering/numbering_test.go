package numbering

import (
	"strings"
	"testing"
)

func TestRenumber_ClosesGaps(t *testing.T) {
	md := "## 1. X\n\ntexto\n\n## 3. Y\n\ntexto\n"
	out, changed := Renumber(md)
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	if !strings.Contains(out, "## 2. Y") {
		t.Fatalf("gap not closed:\n%s", out)
	}
	if !strings.Contains(out, "## 1. X") {
		t.Fatalf("first heading must stay untouched:\n%s", out)
	}
}

func TestRenumber_HierarchicalCounters(t *testing.T) {
	md := "## 1. A\n\n### 1.3. A sub\n\n### 1.7. Outra sub\n\n## 2. B\n\n### 1.1. B sub\n"
	out, _ := Renumber(md)
	for _, want := range []string{"### 1.1. A sub", "### 1.2. Outra sub", "### 2.1. B sub"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenumber_Idempotent(t *testing.T) {
	md := "## 5. Primeiro\n\n### 2.9. Sub\n\n#### 1.1.1. Detalhe\n\n## 1. Segundo\n"
	once, _ := Renumber(md)
	twice, changed := Renumber(once)
	if changed || twice != once {
		t.Fatalf("renumber must be idempotent:\n%s\nvs\n%s", once, twice)
	}
}

func TestRenumber_SkipsMetaAndTableHeadings(t *testing.T) {
	md := "## Sumário\n\n## 1. Tema\n\n#### Quadro-síntese do tema\n\n### 1.1. Sub\n\n## Referências\n"
	out, _ := Renumber(md)
	if !strings.Contains(out, "## Sumário") || !strings.Contains(out, "## Referências") {
		t.Fatalf("meta headings must stay unnumbered:\n%s", out)
	}
	if !strings.Contains(out, "#### Quadro-síntese do tema") {
		t.Fatalf("table heading must stay unnumbered:\n%s", out)
	}
	if !strings.Contains(out, "### 1.1. Sub") {
		t.Fatalf("regular subheading should be numbered:\n%s", out)
	}
}

func TestRenumber_AddsMissingPrefix(t *testing.T) {
	md := "## Tema Sem Número\n\ntexto\n"
	out, changed := Renumber(md)
	if !changed || !strings.Contains(out, "## 1. Tema Sem Número") {
		t.Fatalf("missing prefix should be added:\n%s", out)
	}
}

func TestRenumber_IgnoresFencedHeadings(t *testing.T) {
	md := "## 1. Real\n\n```\n## 9. dentro do fence\n```\n\n## 3. Seguinte\n"
	out, _ := Renumber(md)
	if !strings.Contains(out, "## 9. dentro do fence") {
		t.Fatalf("fenced pseudo-heading must not be rewritten:\n%s", out)
	}
	if !strings.Contains(out, "## 2. Seguinte") {
		t.Fatalf("numbering should continue past the fence:\n%s", out)
	}
}

func TestChanges_ReportsOldAndNew(t *testing.T) {
	md := "## 1. A\n\n## 4. B\n"
	changes := Changes(md)
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %+v", changes)
	}
	if changes[0].Old != "## 4. B" || changes[0].New != "## 2. B" {
		t.Fatalf("unexpected change: %+v", changes[0])
	}
}
