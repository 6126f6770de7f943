package similarity

import "testing"

func TestSequenceRatio_Bounds(t *testing.T) {
	if r := SequenceRatio("abc", "abc"); r != 1 {
		t.Fatalf("identical strings should score 1, got %f", r)
	}
	if r := SequenceRatio("abc", "xyz"); r != 0 {
		t.Fatalf("disjoint strings should score 0, got %f", r)
	}
	if r := SequenceRatio("", ""); r != 1 {
		t.Fatalf("two empty strings should score 1, got %f", r)
	}
	if r := SequenceRatio("abc", ""); r != 0 {
		t.Fatalf("empty vs non-empty should score 0, got %f", r)
	}
}

func TestSequenceRatio_PartialOverlap(t *testing.T) {
	r := SequenceRatio("o reu foi condenado no processo", "o reu foi absolvido no processo")
	if r <= 0.5 || r >= 1 {
		t.Fatalf("expected a mid-range ratio, got %f", r)
	}
}

func TestTokenSet_FiltersStopwordsAndDigits(t *testing.T) {
	set := TokenSet("O contrato que foi assinado em 2019 pelas partes", 3)
	if _, ok := set["que"]; ok {
		t.Fatalf("stopword must be excluded")
	}
	if _, ok := set["2019"]; ok {
		t.Fatalf("pure-digit token must be excluded")
	}
	if _, ok := set["contrato"]; !ok {
		t.Fatalf("content word missing from token set: %v", set)
	}
}

func TestJaccard(t *testing.T) {
	a := TokenSet("responsabilidade civil objetiva fornecedor", 3)
	b := TokenSet("responsabilidade civil subjetiva empregador", 3)
	j := Jaccard(a, b)
	if j <= 0 || j >= 1 {
		t.Fatalf("expected partial overlap, got %f", j)
	}
	if Jaccard(nil, nil) != 0 {
		t.Fatalf("empty sets should score 0")
	}
}

func TestLegitimate_CitationAndStructural(t *testing.T) {
	cases := []string{
		"Art. 5º, LXXVIII, da Constituição Federal assegura a razoável duração do processo.",
		"Súmula 331 do TST trata da terceirização de serviços.",
		"| coluna | coluna |",
		"## Qualquer heading",
		"> citação em bloco",
		"```",
		"📋 Quadro-síntese — Responsabilidade Civil",
	}
	for _, c := range cases {
		if !Legitimate(c) {
			t.Fatalf("expected legitimate repetition: %q", c)
		}
	}
}

func TestLegitimate_PlainProseIsNot(t *testing.T) {
	text := "A responsabilidade do fornecedor independe da existência de culpa quando o defeito do produto causa dano ao consumidor final."
	if Legitimate(text) {
		t.Fatalf("ordinary prose must not be whitelisted")
	}
}

func TestConfidence(t *testing.T) {
	if c := Confidence("exact", 1, 1, 0.87); c != 0.99 {
		t.Fatalf("exact confidence must be 0.99, got %f", c)
	}
	c := Confidence("near", 0.90, 0.70, 0.87)
	if c <= 0.7 || c > 0.98 {
		t.Fatalf("near confidence out of expected band: %f", c)
	}
	if c := Confidence("near", 2.0, 1.0, 0.87); c != 0.98 {
		t.Fatalf("near confidence must cap at 0.98, got %f", c)
	}
}
