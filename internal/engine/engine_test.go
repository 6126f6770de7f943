package engine

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperifyio/transcriptfix/internal/plan"
)

const repeated = "A responsabilidade civil do fornecedor de produtos independe da existência de culpa para a reparação dos danos causados aos consumidores."

// composite carries one exact duplicate paragraph, one numbering gap and one
// misplaced synthesis table.
const composite = `## 1. Tema Central

Intro.

#### 📋 Quadro-síntese — Tema Central
| Item | Regra |
| --- | --- |
| A | B |

### 1.1. Primeiro Subtópico

` + repeated + `

Parágrafo intermediário diferente, com conteúdo próprio e extensão suficiente para ser elegível.

` + repeated + `

## 3. Tema Seguinte

Corpo do tema seguinte com texto distinto e suficientemente longo para a análise considerar.
`

func TestAnalyze_RejectsInvalidUTF8(t *testing.T) {
	_, err := Analyze("## 1. Tema\n\xff\xfe corpo", Config{})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestAnalyze_RejectsOversizedInput(t *testing.T) {
	_, err := Analyze(strings.Repeat("a", 64), Config{MaxDocumentBytes: 32})
	if !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestAnalyze_ReportsMissingOverridesFile(t *testing.T) {
	cfg := Config{ProfileOverridesPath: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, err := Analyze("## 1. Tema\n", cfg); err == nil {
		t.Fatalf("a configured but unreadable overrides file must fail loudly")
	}
}

func TestAnalyze_CompositeDocument(t *testing.T) {
	r, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if r.Mode != "APOSTILA" {
		t.Fatalf("unexpected mode %q", r.Mode)
	}
	if len(r.DuplicateParagraphs) != 1 || r.DuplicateParagraphs[0].Kind != "exact" {
		t.Fatalf("expected one exact duplicate paragraph, got %+v", r.DuplicateParagraphs)
	}
	if len(r.HeadingNumberingIssues) != 1 || !strings.Contains(r.HeadingNumberingIssues[0].NewText, "## 2.") {
		t.Fatalf("expected the gap at heading 3 to be flagged, got %+v", r.HeadingNumberingIssues)
	}
	if len(r.TableMisplacements) != 1 {
		t.Fatalf("expected one misplaced table, got %+v", r.TableMisplacements)
	}
	sum := 0
	for _, list := range [][]plan.FixIssue{
		r.DuplicateParagraphs, r.DuplicateSections, r.HeadingNumberingIssues,
		r.HeadingSemanticIssues, r.TableMisplacements, r.TableHeadingLevelIssues,
		r.HeadingMarkdownArtifacts,
	} {
		sum += len(list)
	}
	if r.TotalIssues != sum {
		t.Fatalf("total %d does not match category sum %d", r.TotalIssues, sum)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input must yield identical reports")
	}
}

func TestApply_RunsApprovedFixes(t *testing.T) {
	r, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	res, err := Apply(composite, AutoApplicable(r), Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || !strings.Contains(res.NewText, "## 2. Tema Seguinte") {
		t.Fatalf("renumbering should have been applied: %+v", res.Applied)
	}
}

func TestAutoApplicable_OnlyRenumbering(t *testing.T) {
	r, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	auto := AutoApplicable(r)
	if len(auto) != 1 || auto[0].Action != plan.ActionRenumber {
		t.Fatalf("only renumbering is auto-applicable, got %+v", auto)
	}
}

func TestPartition_AdvisoriesAlwaysNeedReview(t *testing.T) {
	r, err := Analyze(composite, Config{Mode: "APOSTILA"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	confident, review := Partition(r, DefaultConfidenceFloor)
	if len(confident)+len(review) != r.TotalIssues {
		t.Fatalf("partition must cover every issue")
	}
	for _, is := range confident {
		if is.Action == plan.ActionRenameRecommended {
			t.Fatalf("advisory issue leaked into the confident bucket: %+v", is)
		}
		if is.Confidence < DefaultConfidenceFloor {
			t.Fatalf("below-floor issue in the confident bucket: %+v", is)
		}
	}
}
